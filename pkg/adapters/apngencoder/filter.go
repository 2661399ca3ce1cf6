package apngencoder

// PNG filter types
const (
	filterNone  = 0
	filterSub   = 1
	filterUp    = 2
	filterAvg   = 3
	filterPaeth = 4
	numFilters  = 5
)

// filterRGBA returns the scanlines of a straight RGBA8 image, each prefixed
// with the filter type that minimises the sum of absolute residuals.
func filterRGBA(pix []byte, width, height int) []byte {
	const bpp = 4
	stride := width * bpp
	out := make([]byte, 0, height*(stride+1))

	var candidates [numFilters][]byte
	for i := range candidates {
		candidates[i] = make([]byte, stride)
	}
	prev := make([]byte, stride) // the row above the first row is all zero

	for y := 0; y < height; y++ {
		cur := pix[y*stride : (y+1)*stride]

		copy(candidates[filterNone], cur)
		for i := 0; i < stride; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			candidates[filterSub][i] = cur[i] - left
			candidates[filterUp][i] = cur[i] - up
			candidates[filterAvg][i] = cur[i] - byte((int(left)+int(up))/2)
			candidates[filterPaeth][i] = cur[i] - paeth(left, up, upLeft)
		}

		best, bestSum := filterNone, -1
		for f := filterNone; f < numFilters; f++ {
			sum := 0
			for _, v := range candidates[f] {
				sum += absResidual(v)
				if bestSum >= 0 && sum >= bestSum {
					break
				}
			}
			if bestSum < 0 || sum < bestSum {
				best, bestSum = f, sum
			}
		}

		out = append(out, byte(best))
		out = append(out, candidates[best]...)
		prev = cur
	}
	return out
}

func absResidual(v byte) int {
	if v < 128 {
		return int(v)
	}
	return 256 - int(v)
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
