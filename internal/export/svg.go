// Package export renders recorded runs as images.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/storage"
)

var typeColors = map[rigidbody.Type]string{
	rigidbody.TypeDynamic:   "#00ccff",
	rigidbody.TypeStatic:    "#888899",
	rigidbody.TypeKinematic: "#ffaa00",
}

type point struct {
	X, Y float64
	Type rigidbody.Type
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) add(p point) {
	b.minX = min(b.minX, p.X)
	b.maxX = max(b.maxX, p.X)
	b.minY = min(b.minY, p.Y)
	b.maxY = max(b.maxY, p.Y)
}

// pad widens the bounds by 10% on every side and keeps a non-zero range.
func (b *bounds) pad() {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
}

// TrajectoriesSVG draws the x-y path of every entity in samples. A path is
// split wherever the entity's rigid-body type changes, and each piece is
// colored by its type. Objects without a rigid body are skipped.
func TrajectoriesSVG(w io.Writer, samples []storage.Sample, width, height int) error {
	paths := make(map[uint32][]point)
	var b bounds
	first := true
	for _, s := range samples {
		if !s.Type.Valid() {
			continue
		}
		p := point{X: s.Position.X(), Y: s.Position.Y(), Type: s.Type}
		if first {
			b = bounds{p.X, p.X, p.Y, p.Y}
			first = false
		}
		b.add(p)
		paths[s.ID] = append(paths[s.ID], p)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no rigid body samples to draw")
	}
	b.pad()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	project := func(p point) (float64, float64) {
		x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
		y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
		return x, y
	}

	ids := make([]uint32, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		pts := paths[id]
		sb.WriteString(fmt.Sprintf("<g id=\"entity-%d\">\n", id))
		for start := 0; start < len(pts); {
			end := start + 1
			for end < len(pts) && pts[end].Type == pts[start].Type {
				end++
			}
			// Include the next point so consecutive pieces join up.
			seg := pts[start:min(end+1, len(pts))]
			writeSegment(&sb, seg, typeColors[pts[start].Type], project)
			start = end
		}
		x, y := project(pts[len(pts)-1])
		sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n",
			x, y, typeColors[pts[len(pts)-1].Type]))
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeSegment(sb *strings.Builder, seg []point, color string, project func(point) (float64, float64)) {
	if len(seg) == 1 {
		x, y := project(seg[0])
		sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\" fill=\"%s\"/>\n", x, y, color))
		return
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
	for i, p := range seg {
		x, y := project(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
}
