package captcha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"detected": true}`, `{"detected": true}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  \n```json\n{}\n```  ", `{}`},
		{"unclosed", "```json\n{\"a\": 1}", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func newTestOrchestrator(max int) *Orchestrator {
	o := NewOrchestrator(max)
	o.sleep = func(ctx context.Context, d time.Duration) {}
	return o
}

func TestSolveUnknownTypeStopsImmediately(t *testing.T) {
	o := newTestOrchestrator(3)
	calls := 0
	for typ := range o.solvers {
		o.Register(typ, func(ctx context.Context, env *Env) (bool, error) {
			calls++
			return false, nil
		})
	}

	res := o.Solve(context.Background(), &Env{Detection: Detection{Detected: true, Type: "unknown"}})
	if res.Solved {
		t.Error("unknown type must not report solved")
	}
	if res.Type != "unknown" {
		t.Errorf("type = %q", res.Type)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if calls != 0 {
		t.Errorf("no solver should run, got %d calls", calls)
	}
}

func TestSolveRetriesUpToCap(t *testing.T) {
	o := newTestOrchestrator(3)
	calls := 0
	o.Register(TypeSlider, func(ctx context.Context, env *Env) (bool, error) {
		calls++
		return false, errors.New("nope")
	})

	res := o.Solve(context.Background(), &Env{Detection: Detection{Detected: true, Type: TypeSlider}})
	if res.Solved {
		t.Error("should not be solved")
	}
	if calls != 3 {
		t.Errorf("solver ran %d times, want 3", calls)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
}

func TestSolveStopsOnSuccess(t *testing.T) {
	o := newTestOrchestrator(3)
	calls := 0
	o.Register(TypeHCaptcha, func(ctx context.Context, env *Env) (bool, error) {
		calls++
		return calls == 2, nil
	})

	res := o.Solve(context.Background(), &Env{Detection: Detection{Detected: true, Type: TypeHCaptcha}})
	if !res.Solved {
		t.Error("expected solved")
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	if calls != 2 {
		t.Errorf("solver ran %d times, want 2", calls)
	}
}

func TestSolveBackoffIsLinear(t *testing.T) {
	o := NewOrchestrator(3)
	var slept []time.Duration
	o.sleep = func(ctx context.Context, d time.Duration) { slept = append(slept, d) }
	o.Register(TypeText, func(ctx context.Context, env *Env) (bool, error) {
		return false, nil
	})

	o.Solve(context.Background(), &Env{Detection: Detection{Detected: true, Type: TypeText}})
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("backoff %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestSolveVisionTypesWithoutAnalyzer(t *testing.T) {
	for _, typ := range []string{TypeSlider, TypeImageGrid, TypeText} {
		t.Run(typ, func(t *testing.T) {
			o := newTestOrchestrator(3)
			res := o.Solve(context.Background(), &Env{
				Detection: Detection{Detected: true, Type: typ},
			})
			if res.Solved {
				t.Error("no analyzer must not report solved")
			}
			if res.Attempts != 1 {
				t.Errorf("attempts = %d, want 1 (retries are futile without an analyzer)", res.Attempts)
			}
		})
	}
}

func TestVisionSolversRequireAnalyzer(t *testing.T) {
	for name, s := range map[string]Solver{
		"slider": solveSlider,
		"grid":   solveGrid,
		"text":   solveText,
	} {
		t.Run(name, func(t *testing.T) {
			solved, err := s(context.Background(), &Env{})
			if solved {
				t.Error("should not be solved")
			}
			if !errors.Is(err, models.ErrVisionBackend) {
				t.Errorf("err = %v, want ErrVisionBackend", err)
			}
		})
	}
}

func TestSolveHonorsCanceledContext(t *testing.T) {
	o := NewOrchestrator(3)
	o.sleep = func(ctx context.Context, d time.Duration) {}
	calls := 0
	o.Register(TypeSlider, func(ctx context.Context, env *Env) (bool, error) {
		calls++
		return false, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := o.Solve(ctx, &Env{Detection: Detection{Detected: true, Type: TypeSlider}})
	if res.Solved {
		t.Error("should not be solved")
	}
	if calls != 1 {
		t.Errorf("canceled context should stop after first attempt, ran %d", calls)
	}
}

func TestDetectWithVisionParsesFencedJSON(t *testing.T) {
	a := analyzerFunc(func(ctx context.Context, img []byte, prompt string) (string, error) {
		return "```json\n{\"detected\": true, \"type\": \"slider\"}\n```", nil
	})
	det, err := DetectWithVision(context.Background(), a, []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	if !det.Detected || det.Type != TypeSlider {
		t.Errorf("detection = %+v", det)
	}
}

func TestDetectWithVisionRejectsGarbage(t *testing.T) {
	a := analyzerFunc(func(ctx context.Context, img []byte, prompt string) (string, error) {
		return "I think this might be a CAPTCHA", nil
	})
	if _, err := DetectWithVision(context.Background(), a, []byte{1}); err == nil {
		t.Error("prose reply should fail to parse")
	}
}

func TestDetectWithVisionNilAnalyzer(t *testing.T) {
	if _, err := DetectWithVision(context.Background(), nil, []byte{1}); err == nil {
		t.Error("nil analyzer should error")
	}
}

func TestNewAnalyzerKeyPrecedence(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	a, err := NewAnalyzer("configured-key")
	if err != nil {
		t.Fatal(err)
	}
	if a.apiKey != "configured-key" {
		t.Errorf("apiKey = %q, want the configured key over the environment", a.apiKey)
	}

	a, err = NewAnalyzer("")
	if err != nil {
		t.Fatal(err)
	}
	if a.apiKey != "env-key" {
		t.Errorf("apiKey = %q, want the environment fallback", a.apiKey)
	}
}

type analyzerFunc func(ctx context.Context, imagePNG []byte, prompt string) (string, error)

func (f analyzerFunc) Analyze(ctx context.Context, imagePNG []byte, prompt string) (string, error) {
	return f(ctx, imagePNG, prompt)
}
