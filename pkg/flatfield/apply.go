package flatfield

import(
	"mosaicfit/pkg/fgrid"
)

// CorrectionResult accounts for what Apply did to an image. ZeroDivisors
// counts divide-mode pixels whose surface value was exactly zero: those
// are left untouched rather than divided, and the count is the caller's
// signal that the surface was degenerate there.
type CorrectionResult struct {
	Adjusted     int
	ZeroDivisors int
}

// Apply corrects one source image in place using the centered surface.
// Only pixels inside the threshold range are touched. Subtract mode
// clamps results into [0,255]; divide mode performs the raw division and
// only saturates the float-to-byte store, with no range clamp of its
// own.
func (e *Estimator)Apply(img *fgrid.Grid[uint8]) (CorrectionResult, error) {
	if e.stage != stageCentered {
		return CorrectionResult{}, e.fail(ErrCodeBadStage, "apply requires a centered surface")
	}
	mode, ok := e.cfg.mode()
	if !ok {
		return CorrectionResult{}, e.fail(ErrCodeBothModes, "cannot choose BOTH subtract and divide - choose one or neither")
	}
	if img == nil || img.Dx() != e.width || img.Dy() != e.height {
		return CorrectionResult{}, e.fail(ErrCodeBadArray, "image to correct does not match run geometry %dx%d", e.width, e.height)
	}
	if mode == ModeNone {
		return CorrectionResult{}, nil
	}

	var res CorrectionResult
	pix := img.Values()
	surf := e.surface.Values()

	for t, v := range pix {
		if !e.cfg.inRange(v) {
			continue
		}
		switch mode {
		case ModeSubtract:
			pix[t] = clampByte(float64(v) - surf[t])
			res.Adjusted++
		case ModeDivide:
			if surf[t] == 0 {
				res.ZeroDivisors++
				continue
			}
			pix[t] = clampByte(float64(v) / surf[t])
			res.Adjusted++
		}
	}

	return res, nil
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
