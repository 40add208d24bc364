package board

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

func route(start, end, layer string, width float64, net string) RouteRequest {
	return RouteRequest{
		Start: json.RawMessage(start),
		End:   json.RawMessage(end),
		Layer: layer,
		Width: width,
		Net:   net,
	}
}

func TestTraceRoute(t *testing.T) {
	s := loadedSession(t)
	b, _ := s.Board()
	before := len(b.Tracks)

	res, err := s.TraceRoute(route(`"R1.1"`, `{"pad":"J1.1"}`, "F.Cu", 0.3, "GND"))
	if err != nil {
		t.Fatalf("TraceRoute() failed: %v", err)
	}
	if !res.Success || res.Net != "GND" || res.Layer != "F.Cu" || res.Width != 0.3 {
		t.Errorf("result = %+v", res)
	}
	if res.Start.X != 9.2 || res.End.X != 30 {
		t.Errorf("endpoints = %+v -> %+v", res.Start, res.End)
	}
	if math.Abs(res.Length-20.8) > 1e-9 {
		t.Errorf("Length = %v, want 20.8", res.Length)
	}
	if len(b.Tracks) != before+1 || string(b.Tracks[len(b.Tracks)-1].UUID) != res.UUID {
		t.Errorf("track not appended")
	}
}

func TestTraceRouteCoordinates(t *testing.T) {
	s := loadedSession(t)

	res, err := s.TraceRoute(route(`{"x":1,"y":1}`, `{"x":0.1,"y":0.1,"unit":"inch"}`, "B.Cu", 0.2, "VCC"))
	if err != nil {
		t.Fatalf("TraceRoute() failed: %v", err)
	}
	if res.End.X != 2.54 || res.End.Y != 2.54 {
		t.Errorf("inch endpoint = %+v", res.End)
	}
}

func TestTraceRouteErrors(t *testing.T) {
	tests := []struct {
		name string
		req  RouteRequest
		kind kicaderr.Kind
	}{
		{"missing net", route(`"R1.1"`, `"J1.1"`, "F.Cu", 0.25, ""), kicaderr.KindInvalidInput},
		{"missing width", route(`"R1.1"`, `"J1.1"`, "F.Cu", 0, "GND"), kicaderr.KindInvalidInput},
		{"unknown net", route(`"R1.1"`, `"J1.1"`, "F.Cu", 0.25, "NOPE"), kicaderr.KindNetNotFound},
		{"unknown layer", route(`"R1.1"`, `"J1.1"`, "In4.Cu", 0.25, "GND"), kicaderr.KindInvalidLayer},
		{"non copper layer", route(`"R1.1"`, `"J1.1"`, "Edge.Cuts", 0.25, "GND"), kicaderr.KindInvalidLayer},
		{"unknown pad", route(`"R1.9"`, `"J1.1"`, "F.Cu", 0.25, "GND"), kicaderr.KindInvalidPosition},
		{"malformed pad ref", route(`"R1"`, `"J1.1"`, "F.Cu", 0.25, "GND"), kicaderr.KindInvalidPosition},
		{"missing y", route(`{"x":1}`, `"J1.1"`, "F.Cu", 0.25, "GND"), kicaderr.KindInvalidPosition},
		{"number endpoint", route(`42`, `"J1.1"`, "F.Cu", 0.25, "GND"), kicaderr.KindInvalidPosition},
		{"negative width", route(`"R1.1"`, `"J1.1"`, "F.Cu", -1, "GND"), kicaderr.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedSession(t)
			b, _ := s.Board()
			before := len(b.Tracks)

			_, err := s.TraceRoute(tt.req)
			if got := kicaderr.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s (%v), want %s", got, err, tt.kind)
			}
			if len(b.Tracks) != before {
				t.Errorf("failed route added a track")
			}
		})
	}
}

func TestTraceRouteNetNotFoundSentinel(t *testing.T) {
	s := loadedSession(t)
	_, err := s.TraceRoute(route(`"R1.1"`, `"J1.1"`, "F.Cu", 0.25, "GND2"))
	if !errors.Is(err, kicaderr.NetNotFound) {
		t.Errorf("got %v, want NetNotFound", err)
	}
}

func TestTraceRoutesPartialFailure(t *testing.T) {
	s := loadedSession(t)
	b, _ := s.Board()
	before := len(b.Tracks)

	results, err := s.TraceRoutes([]RouteRequest{
		route(`"R1.1"`, `"J1.1"`, "F.Cu", 0.25, "GND"),
		route(`"R1.2"`, `"J1.2"`, "In9.Cu", 0.25, "SIG"),
		route(`{"x":0,"y":0}`, `{"x":5,"y":0}`, "B.Cu", 0.25, "VCC"),
	})
	if err != nil {
		t.Fatalf("TraceRoutes() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Errorf("success flags = %v %v %v", results[0].Success, results[1].Success, results[2].Success)
	}
	if results[1].Kind != kicaderr.KindInvalidLayer || results[1].Route == nil || results[1].Route.Layer != "In9.Cu" {
		t.Errorf("failed entry = %+v", results[1])
	}
	if len(b.Tracks) != before+2 {
		t.Errorf("tracks added = %d, want 2", len(b.Tracks)-before)
	}
}
