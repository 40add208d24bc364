// Package worker executes one bridge method inside the worker process:
// load the board, run the operation, save when it mutates, and describe
// the outcome as a protocol.Result.
package worker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/board"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/component"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/footprintlib"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
	"github.com/OpenTraceLab/kicadbridge/pkg/protocol"
)

// Worker dispatches methods. It holds no board state between calls.
type Worker struct {
	log     logrus.FieldLogger
	library *footprintlib.Resolver
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(w *Worker) {
		w.log = log
	}
}

// WithLibrary lets place_component_full copy footprints from libraries.
func WithLibrary(r *footprintlib.Resolver) Option {
	return func(w *Worker) {
		w.library = r
	}
}

// New creates a Worker.
func New(opts ...Option) *Worker {
	w := &Worker{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type handler func(w *Worker, c *call) *protocol.Result

var handlers = map[string]handler{
	protocol.MethodLoadBoard:          (*Worker).loadBoard,
	protocol.MethodPlaceComponent:     (*Worker).placeComponent,
	protocol.MethodMoveComponent:      (*Worker).moveComponent,
	protocol.MethodGetNets:            (*Worker).getNets,
	protocol.MethodTrackRoutes:        (*Worker).trackRoutes,
	protocol.MethodExtractBasicInfo:   extract(func(s *board.Session) (any, error) { return s.BasicInfo() }),
	protocol.MethodExtractDesignRules: extract(func(s *board.Session) (any, error) { return s.DesignRules() }),
	protocol.MethodExtractLayers:      extract(func(s *board.Session) (any, error) { return s.Layers() }),
	protocol.MethodExtractPads:        extract(func(s *board.Session) (any, error) { return s.FootprintsAndPads() }),
	protocol.MethodExtractTracksVias:  extract(func(s *board.Session) (any, error) { return s.TracksAndVias() }),
	protocol.MethodExtractZones:       extract(func(s *board.Session) (any, error) { return s.Zones() }),
	protocol.MethodSaveBoard:          (*Worker).saveBoard,
}

// call is the per-invocation state: a fresh session and the raw params.
type call struct {
	log     logrus.FieldLogger
	params  json.RawMessage
	session *board.Session
	load    *board.LoadInfo
}

// Dispatch runs method with params. It never returns nil and never panics
// on bad input; every failure becomes a failed Result.
func (w *Worker) Dispatch(method string, params json.RawMessage) (res *protocol.Result) {
	h, ok := handlers[method]
	if !ok {
		return protocol.Failuref(kicaderr.KindInvalidInput, "Unknown method: %s", method)
	}
	if len(strings.TrimSpace(string(params))) == 0 {
		params = json.RawMessage("{}")
	}

	log := w.log.WithField("method", method)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Method panicked")
			res = protocol.Failuref(kicaderr.KindInternal, "internal error in %s: %v", method, r)
		}
	}()

	c := &call{log: log, params: params, session: board.NewSession(log)}
	res = h(w, c)
	if res.Success {
		log.Debug("Method completed")
	} else {
		log.WithField("kind", res.Kind).Warn(res.Error)
	}
	return res
}

// Methods returns the methods the worker understands.
func Methods() []string {
	return append([]string(nil), protocol.Methods...)
}

func (c *call) decode(v any) error {
	if err := json.Unmarshal(c.params, v); err != nil {
		return kicaderr.Errorf(kicaderr.KindInvalidInput, "invalid parameters: %v", err)
	}
	return nil
}

func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return kicaderr.Errorf(kicaderr.KindInvalidInput, "Missing required parameter: %s", strings.Join(missing, ", "))
	}
	return nil
}

// loadProject decodes a project path from the params and loads it.
func (c *call) loadProject(path string) error {
	if err := required("project_path", path); err != nil {
		return err
	}
	info, err := c.session.Load(path)
	if err != nil {
		return err
	}
	c.load = info
	return nil
}

func (w *Worker) loadBoard(c *call) *protocol.Result {
	var p protocol.ProjectParams
	if err := c.decode(&p); err != nil {
		return protocol.Failure(err)
	}
	if err := c.loadProject(p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}
	return protocol.OK("Board loaded successfully").With("board_info", c.load)
}

func (w *Worker) saveBoard(c *call) *protocol.Result {
	var p protocol.SaveParams
	if err := c.decode(&p); err != nil {
		return protocol.Failure(err)
	}
	if err := c.loadProject(p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}
	save, err := c.session.Save(p.OutputPath)
	if err != nil {
		return protocol.Failure(err)
	}
	return protocol.OK(save.Message).With("save_info", save)
}

func (w *Worker) placeComponent(c *call) *protocol.Result {
	var p protocol.PlaceParams
	if err := c.decode(&p); err != nil {
		return protocol.Failure(err)
	}
	if err := required("project_path", p.ProjectPath, "component_id", p.ComponentID, "library", p.Library, "position", string(p.Position)); err != nil {
		return protocol.Failure(err)
	}
	pos, err := units.DecodePosition(p.Position)
	if err != nil {
		return protocol.Failure(kicaderr.New(kicaderr.KindInvalidPosition, err))
	}
	if err := c.loadProject(p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}

	opts := []component.Option{component.WithLogger(c.log)}
	if w.library != nil {
		opts = append(opts, component.WithLibrary(w.library))
	}
	factory := component.NewFactory(c.session, opts...)
	fp, err := factory.CreateFootprint(component.Spec{
		ComponentID: p.ComponentID,
		Library:     p.Library,
		Position:    pos,
		Reference:   p.Reference,
		Value:       p.Value,
		Rotation:    p.Rotation,
		Layer:       p.Layer,
	})
	if err != nil {
		return protocol.Failure(err)
	}
	info, err := factory.PlaceFootprint(fp)
	if err != nil {
		return protocol.Failure(err)
	}
	save, err := c.session.Save(p.OutputPath)
	if err != nil {
		return protocol.Failure(err)
	}
	return protocol.OK(fmt.Sprintf("Component placed and saved: %s", p.ComponentID)).
		With("component", info).
		With("board_info", c.load).
		With("save_info", save)
}

func (w *Worker) moveComponent(c *call) *protocol.Result {
	var p protocol.MoveParams
	if err := c.decode(&p); err != nil {
		return protocol.Failure(err)
	}
	if err := required("project_path", p.ProjectPath, "reference", p.Reference, "position", string(p.Position)); err != nil {
		return protocol.Failure(err)
	}
	pos, err := units.DecodePosition(p.Position)
	if err != nil {
		return protocol.Failure(kicaderr.New(kicaderr.KindInvalidPosition, err))
	}
	if err := c.loadProject(p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}

	factory := component.NewFactory(c.session, component.WithLogger(c.log))
	info, err := factory.MoveComponent(p.Reference, pos, p.Rotation)
	if err != nil {
		return protocol.Failure(err)
	}
	save, err := c.session.Save(p.OutputPath)
	if err != nil {
		return protocol.Failure(err)
	}
	return protocol.OK("Component moved successfully").
		With("component", info).
		With("board_info", c.load).
		With("save_info", save)
}

func (w *Worker) getNets(c *call) *protocol.Result {
	var p protocol.ProjectParams
	if err := c.decode(&p); err != nil {
		return protocol.Failure(err)
	}
	if err := c.loadProject(p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}
	nl, err := c.session.NetList()
	if err != nil {
		return protocol.Failure(err)
	}
	return protocol.OK("Nets extracted successfully").
		With("net_info", nl.Nets).
		With("pad_info", nl.Pads)
}

func (w *Worker) trackRoutes(c *call) *protocol.Result {
	var p protocol.RoutesParams
	if err := c.decode(&p); err != nil {
		return protocol.Failure(err)
	}
	if err := required("project_path", p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}
	if len(p.Routes) == 0 {
		return protocol.Failuref(kicaderr.KindInvalidInput, "Missing required parameter: route")
	}
	if err := c.loadProject(p.ProjectPath); err != nil {
		return protocol.Failure(err)
	}

	results, err := c.session.TraceRoutes(p.Routes)
	if err != nil {
		return protocol.Failure(err)
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	save, err := c.session.Save(p.OutputPath)
	if err != nil {
		return protocol.Failure(err)
	}
	return protocol.OK("Routing operation completed").
		With("routes", results).
		With("routed", len(results)-failed).
		With("failed", failed).
		With("save_info", save)
}

// extract wraps a read-only Session query as a method returning its value
// under "data".
func extract(query func(*board.Session) (any, error)) handler {
	return func(w *Worker, c *call) *protocol.Result {
		var p protocol.ProjectParams
		if err := c.decode(&p); err != nil {
			return protocol.Failure(err)
		}
		if err := c.loadProject(p.ProjectPath); err != nil {
			return protocol.Failure(err)
		}
		data, err := query(c.session)
		if err != nil {
			return protocol.Failure(err)
		}
		return protocol.OK("Board information extracted").With("data", data)
	}
}
