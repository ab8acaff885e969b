package audit

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var fixedTime = time.Date(2025, 3, 7, 18, 4, 5, 123456789, time.FixedZone("CET", 3600))

func sampleBundle(t *testing.T) Bundle {
	t.Helper()
	snapshot := map[string]any{
		"turn":  4,
		"half":  1,
		"teams": []any{map[string]any{"name": "Thornwood Giants", "score": 1}},
	}
	b, err := Build("match-1", "cage_status: formed", "VALID_TEAMS: [\"thornwood giants\"]\n###\n", snapshot, "the cage locks in", fixedTime)
	require.NoError(t, err)
	return b
}

func TestCanonicalize_SortsAndMinifies(t *testing.T) {
	in := json.RawMessage(`{ "b": [ {"z": 1, "a": "x<y"} ], "a": {"d": true, "c": null}, "n": 1.50 }`)

	got, err := Canonicalize(in)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":null,"d":true},"b":[{"a":"x<y","z":1}],"n":1.50}`, string(got))

	again, err := Canonicalize(json.RawMessage(got))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestHash_Stable(t *testing.T) {
	v := map[string]any{"x": []int{3, 2, 1}, "y": "z"}
	h1, err := Hash(v)
	require.NoError(t, err)
	h2, err := Hash(v)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	h3, err := Hash(json.RawMessage(`{"y":"z","x":[3,2,1]}`))
	require.NoError(t, err)
	assert.Equal(t, h1, h3)
}

func TestBuild_Verify(t *testing.T) {
	b := sampleBundle(t)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, time.UTC, b.CreatedAt.Location())
	assert.Equal(t, 123000000, b.CreatedAt.Nanosecond())
	require.NoError(t, Verify(b))

	// formatting of the embedded snapshot does not matter
	pretty, err := json.MarshalIndent(json.RawMessage(b.Snapshot), "", "    ")
	require.NoError(t, err)
	reformatted := b
	reformatted.Snapshot = pretty
	require.NoError(t, Verify(reformatted))
}

func TestVerify_DetectsTampering(t *testing.T) {
	cases := map[string]func(*Bundle){
		"commentary": func(b *Bundle) { b.Commentary += "!" },
		"prompt":     func(b *Bundle) { b.Prompt = "" },
		"snapshot":   func(b *Bundle) { b.Snapshot = json.RawMessage(`{"turn":5}`) },
		"created_at": func(b *Bundle) { b.CreatedAt = b.CreatedAt.Add(time.Millisecond) },
		"hash":       func(b *Bundle) { b.Hash = "00" },
	}
	for name, tamper := range cases {
		t.Run(name, func(t *testing.T) {
			b := sampleBundle(t)
			tamper(&b)
			require.ErrorIs(t, Verify(b), ErrHashMismatch)
		})
	}
}

func TestFileStore_SaveAndRead(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	b := sampleBundle(t)

	require.NoError(t, s.Save(context.Background(), b))

	want := filepath.Join(dir, "2025", "03", "07", "match-1", "20250307_170405123_match-1_bundle.json")
	assert.Equal(t, want, s.Path(b))

	loaded, err := ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, b.Hash, loaded.Hash)
	require.NoError(t, Verify(loaded))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "unknown", SafeName("  "))
	assert.Equal(t, "unknown", SafeName(".."))
	assert.Equal(t, "a_b_c", SafeName("a/b:c"))
}

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, Bundle) error { return f.err }

func TestMultiStore_CombinesErrors(t *testing.T) {
	e1 := errors.New("disk full")
	e2 := errors.New("db down")
	dir := t.TempDir()
	m := MultiStore{failingStore{e1}, NewFileStore(dir), failingStore{e2}}

	b := sampleBundle(t)
	err := m.Save(context.Background(), b)
	require.Error(t, err)
	assert.Equal(t, []error{e1, e2}, multierr.Errors(err))

	// the healthy store still got the bundle
	_, readErr := ReadFile(NewFileStore(dir).Path(b))
	require.NoError(t, readErr)

	require.NoError(t, MultiStore{NewFileStore(t.TempDir())}.Save(context.Background(), b))
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=audit dbname=audit sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestPostgresStore_InsertStatement(t *testing.T) {
	db := dryRunDB(t)
	b := sampleBundle(t)
	rec := toRecord(b)

	stmt := db.Create(&rec).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, `INSERT INTO "audit_bundles"`)
	assert.Contains(t, sql, `"session_id"`)
	assert.Contains(t, sql, `"hash"`)
	assert.Contains(t, stmt.Vars, b.Hash)

	require.NoError(t, NewPostgresStore(db).Save(context.Background(), b))
}

func TestPostgresStore_RecordRoundTrip(t *testing.T) {
	b := sampleBundle(t)
	rec := toRecord(b)
	rec.CreatedAt = rec.CreatedAt.In(time.FixedZone("PST", -8*3600))

	back := rec.bundle()
	assert.Equal(t, b.CreatedAt, back.CreatedAt)
	require.NoError(t, Verify(back))
}
