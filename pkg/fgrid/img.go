package fgrid

import(
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// ToImg dumps a float grid as a titled grayscale PNG, scaling the value
// range into [0,1] and gamma-expanding so it looks sane to a human.
// Debugging aid only; the real output path is the caller's problem.
func ToImg(g *Grid[float64], title, filename string) error {
	min, max := 0.0, 0.0
	for i, v := range g.values {
		if i == 0 || v > max { max = v }
		if i == 0 || v < min { min = v }
	}
	span := max - min
	if span == 0 { span = 1 }

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{g.Dx(), g.Dy()}})
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			v := g.values[y*g.stride+x]
			gray := gammaExpand((v - min) / span)
			c := uint16(gray * 65535.0)
			img.Set(x, y, color.RGBA64{c, c, c, 0xFFFF})
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 20, 20)
	return dc.SavePNG(filename)
}

// linear to sRGB, per https://www.sjbrown.co.uk/posts/gamma-correct-rendering/
func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
