package protocol

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/OpenTraceLab/kicadbridge/pkg/kicaderr"
)

type boardInfo struct {
	PCBPath        string `json:"pcb_path"`
	FootprintCount int    `json:"footprint_count"`
}

func TestResultFlatJSON(t *testing.T) {
	res := OK("Board loaded").With("board_info", boardInfo{PCBPath: "/tmp/a.kicad_pcb", FootprintCount: 3})

	data, err := json.Marshal(res)
	assert.NilError(t, err)

	var flat map[string]any
	assert.NilError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, flat["success"], true)
	assert.Equal(t, flat["message"], "Board loaded")
	_, hasError := flat["error"]
	assert.Assert(t, !hasError)
	info, ok := flat["board_info"].(map[string]any)
	assert.Assert(t, ok, string(data))
	assert.Equal(t, info["footprint_count"], float64(3))
}

func TestResultRoundTrip(t *testing.T) {
	in := Failuref(kicaderr.KindSubprocessFailed, "Subprocess failed with return code 2")
	in.Stdout = "partial"
	in.Stderr = "boom"
	in.With("route", map[string]string{"net": "GND"})

	data, err := json.Marshal(in)
	assert.NilError(t, err)

	var out Result
	assert.NilError(t, json.Unmarshal(data, &out))
	assert.Equal(t, out.Success, false)
	assert.Equal(t, out.Kind, kicaderr.KindSubprocessFailed)
	assert.Equal(t, out.Error, "Subprocess failed with return code 2")
	assert.Equal(t, out.Stdout, "partial")
	assert.Equal(t, out.Stderr, "boom")
	assert.Assert(t, is.Len(out.Fields, 1))

	route, err := Decode[map[string]string](&out, "route")
	assert.NilError(t, err)
	assert.Equal(t, route["net"], "GND")
}

func TestResultUnmarshalRejects(t *testing.T) {
	for name, input := range map[string]string{
		"array":       `[1,2]`,
		"no success":  `{"message":"hi"}`,
		"bad success": `{"success":"yes"}`,
		"bad kind":    `{"success":false,"kind":7}`,
	} {
		t.Run(name, func(t *testing.T) {
			var r Result
			assert.Assert(t, json.Unmarshal([]byte(input), &r) != nil)
		})
	}
}

func TestFailureCarriesKind(t *testing.T) {
	res := Failure(kicaderr.Errorf(kicaderr.KindNetNotFound, "net %q not found", "GND2"))
	assert.Equal(t, res.Kind, kicaderr.KindNetNotFound)
	assert.Equal(t, res.Error, `net "GND2" not found`)

	err := res.Err()
	assert.Assert(t, errors.Is(err, kicaderr.NetNotFound))

	assert.Equal(t, Failure(errors.New("plain")).Kind, kicaderr.KindInternal)
	assert.NilError(t, OK("fine").Err())
}

func TestWithUnencodable(t *testing.T) {
	res := OK("x").With("bad", math.Inf(1))
	assert.Equal(t, res.Success, false)
	assert.Equal(t, res.Kind, kicaderr.KindInternal)
}

func TestDecodeMissing(t *testing.T) {
	_, err := Decode[boardInfo](OK("x"), "board_info")
	assert.Equal(t, kicaderr.KindOf(err), kicaderr.KindParseFailed)
}
