package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDryRun(t *testing.T) {
	reg, m := NewRegistry()

	m.RecordDryRun("web", true, 20*time.Millisecond)
	m.RecordDryRun("web", false, 5*time.Millisecond)
	m.RecordDryRun("web", true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DryRuns.WithLabelValues("web", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DryRuns.WithLabelValues("web", "false")))

	count, err := testutil.GatherAndCount(reg, "stagehand_dry_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordPhase(t *testing.T) {
	_, m := NewRegistry()

	m.RecordPhase(true, true, false)
	m.RecordPhase(false, true, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PhasesMaterialized))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PreScripts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BuildIntents.WithLabelValues("build")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildIntents.WithLabelValues("push")))
}

func TestRecordPolicyCheck(t *testing.T) {
	_, m := NewRegistry()

	m.RecordPolicyCheck(nil)
	m.RecordPolicyCheck([]string{"docker.allow_push", "images.allowlist", "images.allowlist"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyChecks.WithLabelValues("pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyChecks.WithLabelValues("fail")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PolicyViolations.WithLabelValues("images.allowlist")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyViolations.WithLabelValues("docker.allow_push")))
}

func TestRecordErrorsAndScripts(t *testing.T) {
	_, m := NewRegistry()

	m.RecordError("CALLBACK-001")
	m.RecordError("")
	m.RecordScriptsWritten(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("CALLBACK-001")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ScriptsWritten))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDryRun("web", true, time.Second)
		m.RecordPhase(true, true, true)
		m.RecordPolicyCheck([]string{"docker.allow_push"})
		m.RecordScriptsWritten(1)
		m.RecordError("ARG-001")
	})
}

func TestWriteTextfile(t *testing.T) {
	reg, m := NewRegistry()
	m.RecordDryRun("web", true, time.Millisecond)

	path := filepath.Join(t.TempDir(), "stagehand.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `stagehand_dry_runs_total{pipeline="web",success="true"} 1`))
}
