package focus

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func slide(w, h int, block image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, block, &image.Uniform{C: color.Gray{Y: 255}}, image.Point{}, draw.Src)
	return img
}

func TestRegionsFindsBlock(t *testing.T) {
	img := slide(200, 200, image.Rect(50, 50, 150, 150))
	regions := NewDetector().Regions(img)
	if len(regions) == 0 {
		t.Fatal("expected a region")
	}
	r := regions[0].Rect
	if r.Dx() < 80 || r.Dy() < 80 {
		t.Fatalf("region too small: %v", r)
	}
	if regions[0].Weight <= 0 || regions[0].Weight > 1 {
		t.Fatalf("weight out of range: %v", regions[0].Weight)
	}
}

func TestFocusOnCorner(t *testing.T) {
	img := slide(400, 400, image.Rect(20, 20, 120, 120))
	got, ok := NewDetector().Focus(img)
	if !ok {
		t.Fatal("expected focus")
	}
	if got.W != got.H {
		t.Fatalf("focus is not square relative to frame: %+v", got)
	}
	if got.W < 0.5 {
		t.Fatalf("focus tighter than MinZoom: %+v", got)
	}
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("focus should hug the top-left corner: %+v", got)
	}
	if got.Right() > 1 || got.Bottom() > 1 {
		t.Fatalf("focus leaves the frame: %+v", got)
	}
}

func TestFocusBlank(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	if _, ok := NewDetector().Focus(img); ok {
		t.Fatal("blank image should have no focus")
	}
}

func TestFocusOffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 10, 210, 210))
	draw.Draw(img, image.Rect(110, 110, 200, 200), &image.Uniform{C: color.Gray{Y: 255}}, image.Point{}, draw.Src)
	got, ok := NewDetector().Focus(img)
	if !ok {
		t.Fatal("expected focus")
	}
	if got.X < 0.25 || got.Y < 0.25 {
		t.Fatalf("focus ignores the image origin: %+v", got)
	}
}
