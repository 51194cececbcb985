package keywell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// engineTestConfig keeps engine tests fast: two columns, a thick shell
// and a resolution coarse enough to mesh in well under a second while
// still resolving the walls.
func engineTestConfig() Config {
	cfg := tinyConfig()
	cfg.Preview.Resolution = 1.5
	cfg.Keyboard.ShellThickness = 6
	return cfg
}

func collectUntilFinal(t *testing.T, e *Engine) []Result {
	t.Helper()
	var results []Result
	deadline := time.After(2 * time.Minute)
	for {
		select {
		case r, ok := <-e.Results():
			require.True(t, ok, "results channel closed before a final result")
			results = append(results, r)
			if r.Err != nil || r.Stage == StageFinal {
				return results
			}
		case <-deadline:
			t.Fatal("timed out waiting for a final result")
		}
	}
}

func TestEngineDeliversPreviewThenFinal(t *testing.T) {
	e := NewEngine(WithPreviewScale(2))
	defer e.Close()

	e.Submit(engineTestConfig())
	results := collectUntilFinal(t, e)

	require.Len(t, results, 2)
	preview, final := results[0], results[1]

	require.NoError(t, preview.Err)
	require.Equal(t, StagePreview, preview.Stage)
	require.NotNil(t, preview.RightHalf)
	require.Nil(t, preview.LeftHalf)

	require.NoError(t, final.Err)
	require.Equal(t, StageFinal, final.Stage)
	require.NotNil(t, final.Layout)
	require.NotNil(t, final.Case)
	require.NotNil(t, final.Wiring)
	require.NotNil(t, final.RightHalf)
	require.NotNil(t, final.LeftHalf)
	require.NotNil(t, final.BottomPlate)

	// The preview trades resolution for latency.
	require.Less(t, preview.RightHalf.TriangleCount(), final.RightHalf.TriangleCount())
}

func TestEnginePreviewDisabled(t *testing.T) {
	e := NewEngine(WithPreviewScale(1))
	defer e.Close()

	e.Submit(engineTestConfig())
	results := collectUntilFinal(t, e)
	require.Len(t, results, 1)
	require.Equal(t, StageFinal, results[0].Stage)
}

func TestEngineReportsInvalidConfig(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	cfg := engineTestConfig()
	cfg.FingerCluster.Rows = 0
	e.Submit(cfg)

	results := collectUntilFinal(t, e)
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)

	var cerr *ConfigError
	require.ErrorAs(t, results[0].Err, &cerr)
}

// Resubmitting the config of the last successful run replays the
// retained outputs instead of meshing again.
func TestEngineMemoizesLastSuccess(t *testing.T) {
	e := NewEngine(WithPreviewScale(1))
	defer e.Close()

	cfg := engineTestConfig()
	e.Submit(cfg)
	first := collectUntilFinal(t, e)
	require.NoError(t, first[len(first)-1].Err)

	e.Submit(cfg)
	second := collectUntilFinal(t, e)
	require.Len(t, second, 1)
	require.NoError(t, second[0].Err)
	require.Same(t, first[len(first)-1].RightHalf, second[0].RightHalf)
	require.Same(t, first[len(first)-1].Layout, second[0].Layout)
}

// A newer submission supersedes the in-flight one: the last final
// result always matches the last submission.
func TestEngineSupersedes(t *testing.T) {
	e := NewEngine(WithPreviewScale(1))

	a := engineTestConfig()
	b := engineTestConfig()
	b.FingerCluster.Rows = 1

	e.Submit(a)
	e.Submit(b)

	var finals []Result
	deadline := time.After(2 * time.Minute)
collect:
	for {
		select {
		case r, ok := <-e.Results():
			if !ok {
				break collect
			}
			require.NoError(t, r.Err)
			if r.Stage == StageFinal {
				finals = append(finals, r)
			}
			if len(finals) > 0 && finals[len(finals)-1].Config.Equal(b) {
				go e.Close()
			}
		case <-deadline:
			t.Fatal("timed out waiting for the superseding result")
		}
	}

	require.NotEmpty(t, finals)
	require.True(t, finals[len(finals)-1].Config.Equal(b))
}

func TestEngineSubmitAfterClose(t *testing.T) {
	e := NewEngine()
	e.Close()
	e.Submit(engineTestConfig()) // must not panic or deliver
	_, ok := <-e.Results()
	require.False(t, ok)
}
