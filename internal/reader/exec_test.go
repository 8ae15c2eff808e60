package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/floralink/internal/sensor"
)

// helperScript writes an executable shell script and returns its path.
func helperScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "misensor-read")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing helper script: %v", err)
	}
	return path
}

func newExec(t *testing.T, command string, timeout time.Duration) sensor.Reader {
	t.Helper()
	factory := Factory(command, nil, timeout)
	r, err := factory(sensor.ClassMiflora, "C4:7C:8D:11:22:33")
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	return r
}

func TestExec_FillCache(t *testing.T) {
	cmd := helperScript(t,
		`echo '{"light":4275,"temperature":21.5,"moisture":33,"conductivity":210,"battery":80,"firmware":"3.2.1"}'`)
	r := newExec(t, cmd, 5*time.Second)

	if err := r.FillCache(); err != nil {
		t.Fatalf("FillCache() error = %v", err)
	}

	tests := []struct {
		param sensor.Param
		want  float64
	}{
		{sensor.ParamLight, 4275},
		{sensor.ParamTemperature, 21.5},
		{sensor.ParamMoisture, 33},
		{sensor.ParamConductivity, 210},
		{sensor.ParamBattery, 80},
	}
	for _, tt := range tests {
		got, err := r.ParameterValue(tt.param)
		if err != nil {
			t.Errorf("ParameterValue(%s) error = %v", tt.param, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParameterValue(%s) = %v, want %v", tt.param, got, tt.want)
		}
	}

	if got := r.FirmwareVersion(); got != "3.2.1" {
		t.Errorf("FirmwareVersion() = %q, want 3.2.1", got)
	}
}

func TestExec_ArgumentsPassed(t *testing.T) {
	// The helper receives the class and MAC as its final arguments.
	out := filepath.Join(t.TempDir(), "args.txt")
	cmd := helperScript(t,
		`echo "$@" > `+out+`
echo '{"battery":80}'`)
	r := newExec(t, cmd, 5*time.Second)

	if err := r.FillCache(); err != nil {
		t.Fatalf("FillCache() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading args file: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "miflora C4:7C:8D:11:22:33" {
		t.Errorf("helper arguments = %q, want %q", got, "miflora C4:7C:8D:11:22:33")
	}
}

func TestExec_HelperFailure(t *testing.T) {
	cmd := helperScript(t, `echo "device unreachable" >&2; exit 1`)
	r := newExec(t, cmd, 5*time.Second)

	err := r.FillCache()
	if err == nil {
		t.Fatal("FillCache() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "device unreachable") {
		t.Errorf("error %q does not carry helper stderr", err)
	}
}

func TestExec_MalformedOutput(t *testing.T) {
	cmd := helperScript(t, `echo 'not json'`)
	r := newExec(t, cmd, 5*time.Second)

	if err := r.FillCache(); err == nil {
		t.Error("FillCache() succeeded on malformed output, want error")
	}
}

func TestExec_Timeout(t *testing.T) {
	cmd := helperScript(t, `sleep 10`)
	r := newExec(t, cmd, 100*time.Millisecond)

	err := r.FillCache()
	if err == nil {
		t.Fatal("FillCache() succeeded, want timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestExec_ClearCache(t *testing.T) {
	cmd := helperScript(t, `echo '{"battery":80,"firmware":"3.2.1"}'`)
	r := newExec(t, cmd, 5*time.Second)

	if err := r.FillCache(); err != nil {
		t.Fatalf("FillCache() error = %v", err)
	}
	r.ClearCache()

	if _, err := r.ParameterValue(sensor.ParamBattery); err == nil {
		t.Error("ParameterValue() served a value after ClearCache()")
	}

	// Firmware survives a cache clear.
	if got := r.FirmwareVersion(); got != "3.2.1" {
		t.Errorf("FirmwareVersion() after ClearCache() = %q, want 3.2.1", got)
	}
}

func TestExec_ForeignKeysIgnored(t *testing.T) {
	// humidity is not a Mi Flora parameter; extra keys are dropped.
	cmd := helperScript(t, `echo '{"battery":80,"humidity":50,"rssi":-67}'`)
	r := newExec(t, cmd, 5*time.Second)

	if err := r.FillCache(); err != nil {
		t.Fatalf("FillCache() error = %v", err)
	}
	if _, err := r.ParameterValue(sensor.ParamHumidity); err == nil {
		t.Error("ParameterValue(humidity) served a foreign parameter")
	}
	if got, err := r.ParameterValue(sensor.ParamBattery); err != nil || got != 80 {
		t.Errorf("ParameterValue(battery) = %v, %v", got, err)
	}
}

func TestFactory_EmptyCommand(t *testing.T) {
	factory := Factory("", nil, time.Second)
	if _, err := factory(sensor.ClassMiflora, "C4:7C:8D:11:22:33"); err == nil {
		t.Error("factory with empty command succeeded, want error")
	}
}
