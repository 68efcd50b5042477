package capture

import (
	"image"
	"testing"
)

func TestAcquireFrame_SizesExactly(t *testing.T) {
	r := image.Rect(10, 20, 42, 52)
	f := acquireFrame(r)
	if f.Rect != r {
		t.Fatalf("rect = %v, want %v", f.Rect, r)
	}
	if want := r.Dx() * r.Dy() * 4; len(f.Pix) != want {
		t.Fatalf("pix len = %d, want %d", len(f.Pix), want)
	}
	if f.Stride != r.Dx()*4 {
		t.Fatalf("stride = %d, want %d", f.Stride, r.Dx()*4)
	}
}

func TestAcquireFrame_ReusesRecycledBuffer(t *testing.T) {
	r := image.Rect(0, 0, 64, 64)
	f := acquireFrame(r)
	f.Pix[0] = 0xAB
	recycleFrame(f)

	// A smaller request can reuse the same backing slice.
	g := acquireFrame(image.Rect(0, 0, 32, 32))
	if cap(g.Pix) < 32*32*4 {
		t.Fatalf("reused buffer too small: cap %d", cap(g.Pix))
	}
}

func TestAcquireFrame_DegenerateRect(t *testing.T) {
	f := acquireFrame(image.Rect(5, 5, 5, 5))
	if len(f.Pix) != 0 {
		t.Fatalf("expected empty pix for degenerate rect")
	}
	recycleFrame(f) // must not panic
	recycleFrame(nil)
}

func TestCopyPixels_HandlesStrideMismatch(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	// Destination with a wider stride than the row width.
	dst := &image.RGBA{Pix: make([]byte, 4*8*4), Stride: 8 * 4, Rect: src.Rect}
	copyPixels(dst, src)
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			if dst.Pix[y*dst.Stride+x] != src.Pix[y*src.Stride+x] {
				t.Fatalf("pixel mismatch at row %d byte %d", y, x)
			}
		}
	}
}
