package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/pcb"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicad/units"
	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

// RouteRequest asks for one straight track. Start and End are either a
// position object {"x":..,"y":..,"unit":..}, a pad object {"pad":"R1.1"}
// or a bare "R1.1" string. Width is in millimeters.
type RouteRequest struct {
	Start json.RawMessage `json:"start"`
	End   json.RawMessage `json:"end"`
	Layer string          `json:"layer"`
	Width float64         `json:"width"`
	Net   string          `json:"net"`
}

// RouteResult reports one route. Failed routes echo the request.
type RouteResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Kind    kicaderr.Kind   `json:"kind,omitempty"`
	Route   *RouteRequest   `json:"route,omitempty"`
	UUID    string          `json:"uuid,omitempty"`
	Start   *units.Position `json:"start,omitempty"`
	End     *units.Position `json:"end,omitempty"`
	Width   float64         `json:"width,omitempty"`
	Length  float64         `json:"length,omitempty"`
	Net     string          `json:"net,omitempty"`
	Layer   string          `json:"layer,omitempty"`
}

// TraceRoute validates req and appends one segment to the board. Nothing
// is added when validation fails. The caller saves.
func (s *Session) TraceRoute(req RouteRequest) (*RouteResult, error) {
	b, err := s.Board()
	if err != nil {
		return nil, err
	}
	if isEmpty(req.Start) || isEmpty(req.End) || req.Layer == "" || req.Width == 0 || req.Net == "" {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "Missing required route parameters")
	}

	net, ok := b.FindNetByName(req.Net)
	if !ok {
		return nil, kicaderr.Errorf(kicaderr.KindNetNotFound, "net %q not found", req.Net)
	}
	layer, ok := b.ResolveCopperLayer(req.Layer)
	if !ok {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidLayer, "layer %q is not a copper layer of this board", req.Layer)
	}
	start, err := resolveEndpoint(b, req.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := resolveEndpoint(b, req.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if req.Width < 0 || math.IsNaN(req.Width) || math.IsInf(req.Width, 0) {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "width must be a positive number of millimeters, got %v", req.Width)
	}
	width := units.FromMM(req.Width)
	if width <= 0 {
		return nil, kicaderr.Errorf(kicaderr.KindInvalidInput, "width %v mm rounds to zero", req.Width)
	}

	track := b.AddTrack(pcb.Track{
		Start: start,
		End:   end,
		Width: width,
		Layer: layer,
		Net:   net.Number,
	})
	s.log.WithFields(logrus.Fields{
		"net":   net.Name,
		"layer": layer,
		"uuid":  track.UUID,
	}).Debug("Track added")

	startPos := units.FromInternal(start, units.MM)
	endPos := units.FromInternal(end, units.MM)
	return &RouteResult{
		Success: true,
		Message: fmt.Sprintf("Track added on %s for net %s", layer, net.Name),
		UUID:    string(track.UUID),
		Start:   &startPos,
		End:     &endPos,
		Width:   units.ToMM(width),
		Length:  track.Length() / units.NanometersPerMM,
		Net:     net.Name,
		Layer:   layer,
	}, nil
}

// TraceRoutes applies each route in order. A failing route becomes a
// failure entry and does not affect the others.
func (s *Session) TraceRoutes(reqs []RouteRequest) ([]RouteResult, error) {
	if _, err := s.Board(); err != nil {
		return nil, err
	}
	results := make([]RouteResult, 0, len(reqs))
	for i := range reqs {
		res, err := s.TraceRoute(reqs[i])
		if err != nil {
			s.log.WithError(err).WithField("route", i).Warn("Route rejected")
			req := reqs[i]
			results = append(results, RouteResult{
				Success: false,
				Message: fmt.Sprintf("Failed to route: %v", err),
				Error:   err.Error(),
				Kind:    kicaderr.KindOf(err),
				Route:   &req,
			})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`))
}

// resolveEndpoint turns a route endpoint into board coordinates.
func resolveEndpoint(b *pcb.Board, raw json.RawMessage) (units.Point, error) {
	var ref string
	if err := json.Unmarshal(raw, &ref); err == nil {
		return padPosition(b, ref)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return units.Point{}, kicaderr.Errorf(kicaderr.KindInvalidPosition, "endpoint must be a position or a pad reference, got %s", raw)
	}
	if padRaw, ok := obj["pad"]; ok {
		if err := json.Unmarshal(padRaw, &ref); err != nil {
			return units.Point{}, kicaderr.Errorf(kicaderr.KindInvalidPosition, "pad reference must be a string, got %s", padRaw)
		}
		return padPosition(b, ref)
	}

	pos, err := units.DecodePosition(raw)
	if err != nil {
		return units.Point{}, kicaderr.New(kicaderr.KindInvalidPosition, err)
	}
	pt, err := units.ToInternal(pos)
	if err != nil {
		return units.Point{}, kicaderr.New(kicaderr.KindInvalidPosition, err)
	}
	return pt, nil
}

func padPosition(b *pcb.Board, ref string) (units.Point, error) {
	fp, pad, ok := b.FindPadByReference(ref)
	if !ok {
		return units.Point{}, kicaderr.Errorf(kicaderr.KindInvalidPosition, "pad %q not found", ref)
	}
	return fp.PadPosition(pad), nil
}
