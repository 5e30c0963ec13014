// Package focus finds where the content of a slide or screenshot sits, so a
// kenburns move can end on it instead of the frame centre.
package focus

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/ivlev/tut2video/internal/area"
	"github.com/ivlev/tut2video/internal/model"
	"github.com/ivlev/tut2video/internal/source"
)

// Region is a connected block of high-contrast pixels.
type Region struct {
	Rect image.Rectangle
	// Weight is the share of edge pixels inside Rect.
	Weight float64
}

// Detector finds content regions with a Sobel edge pass followed by
// dilation and connected-component labelling.
type Detector struct {
	MinArea       int     // smallest region kept, in pixels
	EdgeThreshold float64 // gradient magnitude counted as an edge
	DilateRadius  int
	DilatePasses  int
	// Margin pads the focus rect on each side, relative to the frame.
	Margin float64
	// MinZoom bounds how tight the focus rect may get (0.5 = half the frame).
	MinZoom float64
}

func NewDetector() *Detector {
	return &Detector{
		MinArea:       500,
		EdgeThreshold: 30,
		DilateRadius:  2,
		DilatePasses:  2,
		Margin:        0.04,
		MinZoom:       0.5,
	}
}

// Regions returns detected regions, largest first, in coordinates relative
// to the image origin.
func (d *Detector) Regions(img image.Image) []Region {
	gray := grayscale(img)
	edges := sobel(gray, d.EdgeThreshold)
	mask := edges
	for i := 0; i < d.DilatePasses; i++ {
		mask = dilate(mask, d.DilateRadius)
	}

	var out []Region
	for _, r := range components(mask) {
		if r.Dx()*r.Dy() < d.MinArea {
			continue
		}
		out = append(out, Region{Rect: r, Weight: density(edges, r)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rect.Dx()*out[i].Rect.Dy() > out[j].Rect.Dx()*out[j].Rect.Dy()
	})
	return out
}

// Focus returns the frame-relative rect enclosing the detected content,
// padded by Margin, grown to the frame's aspect ratio and at least MinZoom
// of the frame. ok is false on a blank image.
func (d *Detector) Focus(img image.Image) (area.RelRect, bool) {
	regions := d.Regions(img)
	if len(regions) == 0 {
		return area.RelRect{}, false
	}
	b := img.Bounds()
	fw, fh := float64(b.Dx()), float64(b.Dy())

	u := regions[0].Rect
	for _, r := range regions[1:] {
		u = u.Union(r.Rect)
	}
	x0 := float64(u.Min.X)/fw - d.Margin
	y0 := float64(u.Min.Y)/fh - d.Margin
	x1 := float64(u.Max.X)/fw + d.Margin
	y1 := float64(u.Max.Y)/fh + d.Margin

	// equal relative width and height keeps the frame's aspect ratio
	side := math.Max(math.Max(x1-x0, y1-y0), d.MinZoom)
	side = math.Min(side, 1)
	cx, cy := (x0+x1)/2, (y0+y1)/2
	rx := clamp(cx-side/2, 0, 1-side)
	ry := clamp(cy-side/2, 0, 1-side)
	return area.RelRect{X: round(rx), Y: round(ry), W: round(side), H: round(side)}, true
}

// Hints runs Focus on every image asset in ids and keys the results by
// asset id. Assets without content are skipped.
func (d *Detector) Hints(m model.AssetManifest, ids []string) (map[string]area.RelRect, error) {
	hints := make(map[string]area.RelRect, len(ids))
	for _, id := range ids {
		a, ok := m.Lookup(id)
		if !ok || !source.IsImage(a.Path) {
			continue
		}
		img, err := source.Decode(a.Path)
		if err != nil {
			return nil, fmt.Errorf("focus %q: %w", id, err)
		}
		if r, ok := d.Focus(img); ok {
			hints[id] = r
		}
	}
	return hints, nil
}

func round(v float64) float64 { return math.Round(v*1e4) / 1e4 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return g
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

func sobel(g *image.Gray, threshold float64) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sx, sy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := float64(g.Pix[(y+ky)*g.Stride+x+kx])
					sx += p * sobelX[ky+1][kx+1]
					sy += p * sobelY[ky+1][kx+1]
				}
			}
			if math.Hypot(sx, sy) > threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func dilate(g *image.Gray, r int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g.Pix[y*g.Stride+x] == 0 {
				continue
			}
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && ny >= 0 && nx < w && ny < h {
						out.Pix[ny*out.Stride+nx] = 255
					}
				}
			}
		}
	}
	return out
}

// components returns the bounding boxes of 4-connected set pixels.
func components(g *image.Gray) []image.Rectangle {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	seen := make([]bool, w*h)
	var rects []image.Rectangle
	var stack []int
	for start := range seen {
		if seen[start] || g.Pix[(start/w)*g.Stride+start%w] == 0 {
			continue
		}
		r := image.Rect(start%w, start/w, start%w+1, start/w+1)
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			r = r.Union(image.Rect(x, y, x+1, y+1))
			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				i := ny*w + nx
				if !seen[i] && g.Pix[ny*g.Stride+nx] != 0 {
					seen[i] = true
					stack = append(stack, i)
				}
			}
		}
		rects = append(rects, r)
	}
	return rects
}

func density(edges *image.Gray, r image.Rectangle) float64 {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges.Pix[y*edges.Stride+x] != 0 {
				n++
			}
		}
	}
	return float64(n) / float64(r.Dx()*r.Dy())
}
