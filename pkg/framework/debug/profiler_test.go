package debug

import (
	"strings"
	"testing"
	"time"
)

func TestProfiler(t *testing.T) {
	t.Run("Record", func(t *testing.T) {
		p := NewProfiler()

		p.Record("block", 2*time.Millisecond)
		p.Record("block", 4*time.Millisecond)

		m, ok := p.Measurement("block")
		if !ok {
			t.Fatal("Measurement not found")
		}
		if m.Count != 2 {
			t.Errorf("Expected count 2, got %d", m.Count)
		}
		if m.Min != 2*time.Millisecond || m.Max != 4*time.Millisecond {
			t.Errorf("unexpected min/max %v/%v", m.Min, m.Max)
		}
		if m.Average() != 3*time.Millisecond {
			t.Errorf("unexpected average %v", m.Average())
		}
	})

	t.Run("Start", func(t *testing.T) {
		p := NewProfiler()

		stop := p.Start("sleep")
		time.Sleep(5 * time.Millisecond)
		stop()

		m, ok := p.Measurement("sleep")
		if !ok || m.Last < 5*time.Millisecond {
			t.Errorf("timing seems too short: %+v", m)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		p := NewProfiler()
		p.SetEnabled(false)

		p.Start("off")()
		p.Record("off", time.Millisecond)

		if _, ok := p.Measurement("off"); ok {
			t.Error("disabled profiler recorded a measurement")
		}
	})

	t.Run("Report", func(t *testing.T) {
		p := NewProfiler()
		if p.Report() != "No measurements recorded" {
			t.Error("unexpected empty report")
		}

		p.Record("b", time.Millisecond)
		p.Record("a", time.Millisecond)
		report := p.Report()
		if strings.Index(report, "a:") > strings.Index(report, "b:") {
			t.Error("report is not ordered by name")
		}

		p.Reset()
		if len(p.Measurements()) != 0 {
			t.Error("Reset left measurements behind")
		}
	})
}

func TestLoadMeter(t *testing.T) {
	var l LoadMeter

	// 256 frames at 48 kHz is 5.333ms
	block := float64(256) / 48000 * float64(time.Second)
	l.Update(time.Duration(block)/2, 256, 48000)
	if got := l.Load(); got < 49.9 || got > 50.1 {
		t.Errorf("expected ~50%% load, got %f", got)
	}

	l.Update(0, 256, 48000)
	if l.Load() != 0 {
		t.Errorf("expected zero load, got %f", l.Load())
	}
	if l.Peak() < 49.9 {
		t.Errorf("peak was not kept: %f", l.Peak())
	}

	l.ResetPeak()
	if l.Peak() != 0 {
		t.Error("ResetPeak did not clear the peak")
	}

	l.Update(time.Second, 0, 48000)
	if l.Load() != 0 {
		t.Error("zero frames should be ignored")
	}
}
