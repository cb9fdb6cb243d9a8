package export

import (
	"bufio"
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/Faultbox/geoidmesh/internal/mesh"
)

func testMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	opts := mesh.DefaultOptions()
	opts.RowLatitudeDelta = 45
	b, err := mesh.NewBuilder(opts)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	m, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestWriteOBJ(t *testing.T) {
	m := testMesh(t)

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}

	counts := map[string]int{}
	scanner := bufio.NewScanner(&buf)
	var firstV string
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		counts[fields[0]]++

		switch fields[0] {
		case "v":
			if firstV == "" {
				firstV = line
			}
		case "f":
			if len(fields) != 4 {
				t.Fatalf("face line %q does not have 3 corners", line)
			}
			for _, corner := range fields[1:] {
				parts := strings.Split(corner, "/")
				if len(parts) != 3 {
					t.Fatalf("corner %q is not v/vt/vn", corner)
				}
				idx, err := strconv.Atoi(parts[0])
				if err != nil {
					t.Fatalf("corner %q: %v", corner, err)
				}
				if idx < 1 || idx > m.VertexCount() {
					t.Errorf("face index %d out of range 1..%d", idx, m.VertexCount())
				}
			}
		}
	}

	if counts["v"] != m.VertexCount() || counts["vt"] != m.VertexCount() || counts["vn"] != m.VertexCount() {
		t.Errorf("vertex lines: v=%d vt=%d vn=%d, want %d", counts["v"], counts["vt"], counts["vn"], m.VertexCount())
	}
	if counts["f"] != m.TriangleCount() {
		t.Errorf("face lines: got %d, want %d", counts["f"], m.TriangleCount())
	}

	// North pole comes first
	want := "v 0.000000 0.000000 " + strconv.FormatFloat(m.Positions[0].Z, 'f', 6, 64)
	if firstV != want {
		t.Errorf("first vertex line %q, want %q", firstV, want)
	}
}

func TestWriteOBJScaleAndComment(t *testing.T) {
	m := testMesh(t)
	var buf bytes.Buffer
	err := WriteOBJWithOptions(&buf, m, OBJOptions{Scale: 1e-3, Comment: "wgs84 km"})
	if err != nil {
		t.Fatalf("WriteOBJWithOptions: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# wgs84 km\n") {
		t.Errorf("missing comment header: %q", out[:40])
	}
	if !strings.Contains(out, "v 0.000000 0.000000 6356.752314\n") {
		t.Error("north pole not scaled to kilometers")
	}
}

func TestWriteOBJEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, nil); !errors.Is(err, ErrNoMesh) {
		t.Errorf("expected ErrNoMesh, got %v", err)
	}
	if err := WriteOBJ(&buf, &mesh.Mesh{}); !errors.Is(err, ErrNoMesh) {
		t.Errorf("expected ErrNoMesh, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteOBJWriterError(t *testing.T) {
	if err := WriteOBJ(failingWriter{}, testMesh(t)); err == nil {
		t.Error("expected write error")
	}
}
