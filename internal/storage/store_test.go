package storage

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/system"
)

func recordedRun(t *testing.T) ([]Sample, *system.System) {
	t.Helper()
	sys := system.New(system.WithKernel(system.NewEuler()))
	rec := NewRecorder()
	sys.AddObserver(rec)

	k := rigidbody.NewKinematic()
	k.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
	sys.Register(1, physics.FromRigidBody(k))
	sys.Register(2, physics.FromRigidBody(rigidbody.NewStatic()))

	for i := 0; i < 3; i++ {
		if err := sys.Tick(0.5); err != nil {
			t.Fatalf("tick failed: %v", err)
		}
	}
	return rec.Samples(), sys
}

func TestRecorder(t *testing.T) {
	samples, _ := recordedRun(t)

	if len(samples) != 6 {
		t.Fatalf("expected 6 samples, got %d", len(samples))
	}
	last := samples[4]
	if last.ID != 1 || last.Step != 3 || last.Time != 1.5 {
		t.Errorf("unexpected sample header: %+v", last)
	}
	if last.Position != (mgl64.Vec3{1.5, 0, 0}) {
		t.Errorf("expected position 1.5, got %v", last.Position)
	}
	if samples[5].Type != rigidbody.TypeStatic {
		t.Errorf("expected static sample, got %s", samples[5].Type)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	samples, _ := recordedRun(t)
	meta := RunMetadata{Scene: "test", Kernel: "euler", Dt: 0.5, Steps: 3, Entities: 2}

	runID, err := st.Save(meta, samples)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Scene != "test" || loaded.Steps != 3 || loaded.ID != runID {
		t.Errorf("metadata mismatch: %+v", loaded)
	}

	got, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range got {
		if got[i].ID != samples[i].ID || got[i].Type != samples[i].Type {
			t.Errorf("sample %d mismatch: %+v vs %+v", i, got[i], samples[i])
		}
		if !got[i].Position.ApproxEqualThreshold(samples[i].Position, 1e-6) {
			t.Errorf("sample %d position mismatch: %v vs %v", i, got[i].Position, samples[i].Position)
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	st := New(t.TempDir())
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	saved := []struct {
		scene  string
		offset time.Duration
	}{
		{"middle", time.Minute},
		{"oldest", 0},
		{"newest", 2 * time.Minute},
	}
	for _, r := range saved {
		meta := RunMetadata{Scene: r.scene, Kernel: "euler", Timestamp: base.Add(r.offset)}
		if _, err := st.Save(meta, nil); err != nil {
			t.Fatalf("save %s failed: %v", r.scene, err)
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if runs[i].Scene != want {
			t.Errorf("run %d: expected %s, got %s", i, want, runs[i].Scene)
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestSeries(t *testing.T) {
	samples, _ := recordedRun(t)

	xs, err := Series(samples, 1, "px")
	if err != nil {
		t.Fatalf("series failed: %v", err)
	}
	want := []float64{0.5, 1.0, 1.5}
	for i := range want {
		if xs[i] != want[i] {
			t.Errorf("px[%d] = %v, want %v", i, xs[i], want[i])
		}
	}

	if _, err := Series(samples, 1, "qq"); err == nil {
		t.Error("expected error for unknown axis")
	}
}

func TestExportJSON(t *testing.T) {
	samples, _ := recordedRun(t)
	var buf bytes.Buffer

	if err := ExportJSON(&buf, RunMetadata{ID: "r1"}, samples); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Meta.ID != "r1" || len(data.Samples) != len(samples) {
		t.Errorf("export mismatch: id=%s samples=%d", data.Meta.ID, len(data.Samples))
	}
	if data.Samples[0].Type != rigidbody.TypeKinematic {
		t.Errorf("expected kinematic type in export, got %s", data.Samples[0].Type)
	}
}
