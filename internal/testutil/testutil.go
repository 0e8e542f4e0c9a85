// Package testutil builds snapshot fixtures shared by package tests.
package testutil

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"testing"

	"github.com/oxygene76/windcloud/pkg/snapshot"
)

// Cloud describes a uniform spherical cloud embedded in a uniform wind.
type Cloud struct {
	Centre   [3]float64
	Radius   float64
	Density  float64
	Pressure float64
	Velocity [3]float64
	// Tracer is the passive scalar inside the cloud; outside it is zero.
	Tracer float64
}

// UniformSnapshot returns a snapshot on a unit-spaced grid with every listed
// field set to a constant.
func UniformSnapshot(shape snapshot.Shape, values map[string]float64) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Shape: shape, Fields: make(map[string][]float64, len(values))}
	for a := 0; a < 3; a++ {
		c := make([]float64, shape[a])
		for i := range c {
			c[i] = float64(i) + 0.5
		}
		snap.Coords[a] = c
	}
	for name, v := range values {
		data := make([]float64, shape.Cells())
		for i := range data {
			data[i] = v
		}
		snap.Fields[name] = data
	}
	return snap
}

// CloudSnapshot returns an ambient medium (rho=1, prs=1, at rest) holding
// the given cloud. Fields follow snapshot.DefaultVariables.
func CloudSnapshot(shape snapshot.Shape, cl Cloud) *snapshot.Snapshot {
	snap := UniformSnapshot(shape, map[string]float64{
		"rho": 1, "prs": 1, "vx1": 0, "vx2": 0, "vx3": 0, "tr1": 0,
	})
	r2 := cl.Radius * cl.Radius
	for k := 0; k < shape[2]; k++ {
		for j := 0; j < shape[1]; j++ {
			for i := 0; i < shape[0]; i++ {
				dx := snap.Coords[0][i] - cl.Centre[0]
				dy := snap.Coords[1][j] - cl.Centre[1]
				dz := snap.Coords[2][k] - cl.Centre[2]
				if dx*dx+dy*dy+dz*dz > r2 {
					continue
				}
				n := shape.Index(i, j, k)
				snap.Fields["rho"][n] = cl.Density
				snap.Fields["prs"][n] = cl.Pressure
				snap.Fields["tr1"][n] = cl.Tracer
				snap.Fields["vx1"][n] = cl.Velocity[0]
				snap.Fields["vx2"][n] = cl.Velocity[1]
				snap.Fields["vx3"][n] = cl.Velocity[2]
			}
		}
	}
	return snap
}

// WriteVTK writes snap as a binary RECTILINEAR_GRID legacy VTK file with
// double-precision cell data, fields in sorted order.
func WriteVTK(t testing.TB, path string, snap *snapshot.Snapshot) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "# vtk DataFile Version 2.0\nwindcloud fixture\nBINARY\nDATASET RECTILINEAR_GRID\n")
	fmt.Fprintf(w, "DIMENSIONS %d %d %d\n", snap.Shape[0]+1, snap.Shape[1]+1, snap.Shape[2]+1)
	for a, axis := range []string{"X", "Y", "Z"} {
		nodes := cellNodes(snap.Coords[a])
		fmt.Fprintf(w, "%s_COORDINATES %d double\n", axis, len(nodes))
		mustWrite(t, w, nodes)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "CELL_DATA %d\n", snap.Shape.Cells())

	names := make([]string, 0, len(snap.Fields))
	for name := range snap.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "SCALARS %s double 1\nLOOKUP_TABLE default\n", name)
		mustWrite(t, w, snap.Fields[name])
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush %s: %v", path, err)
	}
}

// WriteRaw writes snap as a PLUTO raw dump holding variables in order.
func WriteRaw(t testing.TB, path string, snap *snapshot.Snapshot, variables []string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := snapshot.WriteRaw(w, snap, variables); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush %s: %v", path, err)
	}
}

func cellNodes(centres []float64) []float64 {
	d := 1.0
	if len(centres) > 1 {
		d = centres[1] - centres[0]
	}
	nodes := make([]float64, len(centres)+1)
	for i, c := range centres {
		nodes[i] = c - d/2
	}
	nodes[len(centres)] = centres[len(centres)-1] + d/2
	return nodes
}

func mustWrite(t testing.TB, w *bufio.Writer, data []float64) {
	t.Helper()
	if err := binary.Write(w, binary.BigEndian, data); err != nil {
		t.Fatalf("binary write: %v", err)
	}
}
