package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/chewxy/math32"
	"golang.org/x/image/vector"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/math"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// Overlay rasterizes a 2D orthographic projection of the mesh and the
// skeleton to a PNG, for eyeballing weight and deformation output without
// a renderer. The projection drops Z and fits the XY bounds into the
// image with uniform scale.
type Overlay struct {
	Width   int
	Height  int
	Padding float32

	// BoneWidth and VertexRadius are in output pixels.
	BoneWidth    float32
	VertexRadius float32
}

func NewOverlay(width, height int) *Overlay {
	return &Overlay{
		Width:        width,
		Height:       height,
		Padding:      24,
		BoneWidth:    3,
		VertexRadius: 1.5,
	}
}

var (
	backgroundColor = color.NRGBA{R: 24, G: 24, B: 28, A: 255}
	vertexColor     = color.NRGBA{R: 110, G: 160, B: 210, A: 255}
	boneColor       = color.NRGBA{R: 235, G: 180, B: 60, A: 255}
	jointColor      = color.NRGBA{R: 240, G: 90, B: 70, A: 255}
)

// PoseSegments returns each bone's segment under the given pose: the
// bone origin and tail carried from bind space into the animated world.
func PoseSegments(skel *skeleton.Skeleton, pose *skeleton.Pose) []skeleton.Segment {
	segments := make([]skeleton.Segment, skel.BoneCount())
	for i := range segments {
		world := pose.World[i]
		segments[i] = skeleton.Segment{
			Start: world.Translation(),
			End:   skel.Bone(i).Tail.Transform(world),
		}
	}
	return segments
}

// RestSegments returns the bind-pose segments, for rendering the rest
// state next to an animated frame.
func RestSegments(skel *skeleton.Skeleton) []skeleton.Segment {
	segments := make([]skeleton.Segment, skel.BoneCount())
	for i := range segments {
		segments[i] = skel.RestSegment(i)
	}
	return segments
}

// Render writes the overlay PNG: vertices as dots under the bone
// segments, joints marked at segment starts.
func (o *Overlay) Render(positions []math.Vec3, segments []skeleton.Segment, path string) error {
	project := o.projector(positions, segments)

	img := image.NewNRGBA(image.Rect(0, 0, o.Width, o.Height))
	fill(img, backgroundColor)

	z := vector.NewRasterizer(o.Width, o.Height)

	for _, p := range positions {
		x, y := project(p)
		circle(z, x, y, o.VertexRadius)
	}
	z.Draw(img, img.Bounds(), image.NewUniform(vertexColor), image.Point{})

	z.Reset(o.Width, o.Height)
	for _, seg := range segments {
		x0, y0 := project(seg.Start)
		x1, y1 := project(seg.End)
		thickLine(z, x0, y0, x1, y1, o.BoneWidth)
	}
	z.Draw(img, img.Bounds(), image.NewUniform(boneColor), image.Point{})

	z.Reset(o.Width, o.Height)
	for _, seg := range segments {
		x, y := project(seg.Start)
		circle(z, x, y, o.BoneWidth)
	}
	z.Draw(img, img.Bounds(), image.NewUniform(jointColor), image.Point{})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	core.LogDebug("overlay written: %s", path)
	return nil
}

// projector fits the XY bounds of everything drawn into the image, Y up.
func (o *Overlay) projector(positions []math.Vec3, segments []skeleton.Segment) func(math.Vec3) (float32, float32) {
	minX, minY := float32(math32.MaxFloat32), float32(math32.MaxFloat32)
	maxX, maxY := float32(-math32.MaxFloat32), float32(-math32.MaxFloat32)
	grow := func(p math.Vec3) {
		minX = math32.Min(minX, p.X)
		minY = math32.Min(minY, p.Y)
		maxX = math32.Max(maxX, p.X)
		maxY = math32.Max(maxY, p.Y)
	}
	for _, p := range positions {
		grow(p)
	}
	for _, seg := range segments {
		grow(seg.Start)
		grow(seg.End)
	}
	if minX > maxX {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	scale := math32.Min(
		(float32(o.Width)-2*o.Padding)/spanX,
		(float32(o.Height)-2*o.Padding)/spanY,
	)
	offsetX := (float32(o.Width) - spanX*scale) / 2
	offsetY := (float32(o.Height) - spanY*scale) / 2

	return func(p math.Vec3) (float32, float32) {
		x := offsetX + (p.X-minX)*scale
		y := float32(o.Height) - (offsetY + (p.Y-minY)*scale)
		return x, y
	}
}

func fill(img *image.NRGBA, c color.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
}

// circle approximates a filled circle with a 16-gon, enough at overlay
// scale.
func circle(z *vector.Rasterizer, cx, cy, r float32) {
	const steps = 16
	z.MoveTo(cx+r, cy)
	for i := 1; i <= steps; i++ {
		a := 2 * math32.Pi * float32(i) / steps
		z.LineTo(cx+r*math32.Cos(a), cy+r*math32.Sin(a))
	}
	z.ClosePath()
}

// thickLine draws a segment as a quad extruded along the perpendicular.
func thickLine(z *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx := x1 - x0
	dy := y1 - y0
	length := math32.Hypot(dx, dy)
	if length < 1e-6 {
		circle(z, x0, y0, width/2)
		return
	}
	nx := -dy / length * width / 2
	ny := dx / length * width / 2

	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}
