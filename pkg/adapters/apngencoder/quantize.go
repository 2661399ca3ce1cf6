package apngencoder

import (
	"cmp"
	"context"
	"slices"
)

// colorKey packs a straight RGBA8 colour as 0xRRGGBBAA. Every fully
// transparent pixel maps to key 0 regardless of its colour channels.
type colorKey uint32

func pack(r, g, b, a byte) colorKey {
	if a == 0 {
		return 0
	}
	return colorKey(r)<<24 | colorKey(g)<<16 | colorKey(b)<<8 | colorKey(a)
}

func (k colorKey) rgba() [4]uint8 {
	return [4]uint8{uint8(k >> 24), uint8(k >> 16), uint8(k >> 8), uint8(k)}
}

// histogram counts pixels per colour across every frame of an animation.
type histogram map[colorKey]int

func (h histogram) add(pix []byte) {
	if len(pix) < 4 {
		return
	}
	run := 0
	prev := pack(pix[0], pix[1], pix[2], pix[3])
	for i := 0; i+3 < len(pix); i += 4 {
		k := pack(pix[i], pix[i+1], pix[i+2], pix[i+3])
		if k != prev {
			h[prev] += run
			prev, run = k, 0
		}
		run++
	}
	h[prev] += run
}

type histEntry struct {
	key   colorKey
	c     [4]uint8
	count int
	id    int // position before median cut reorders entries
}

// maxCutEntries bounds the colours fed to median cut. Larger histograms
// are merged into coarser buckets first.
const maxCutEntries = 1 << 15

type colorBox struct {
	entries []histEntry
	lo, hi  [4]uint8
}

func newColorBox(entries []histEntry) colorBox {
	b := colorBox{entries: entries, lo: [4]uint8{255, 255, 255, 255}}
	for _, e := range entries {
		for ch := 0; ch < 4; ch++ {
			b.lo[ch] = min(b.lo[ch], e.c[ch])
			b.hi[ch] = max(b.hi[ch], e.c[ch])
		}
	}
	return b
}

// widest returns the channel with the largest extent; ties go to the
// lower channel index.
func (b colorBox) widest() (channel, extent int) {
	for ch := 0; ch < 4; ch++ {
		if r := int(b.hi[ch]) - int(b.lo[ch]); r > extent {
			channel, extent = ch, r
		}
	}
	return channel, extent
}

// split cuts the box at the pixel-weighted median of its widest channel.
// Both halves are non-empty.
func (b colorBox) split() (colorBox, colorBox) {
	ch, _ := b.widest()
	es := b.entries
	slices.SortFunc(es, func(x, y histEntry) int {
		if c := cmp.Compare(x.c[ch], y.c[ch]); c != 0 {
			return c
		}
		return cmp.Compare(x.key, y.key)
	})

	total := 0
	for _, e := range es {
		total += e.count
	}

	cut := len(es) - 1
	acc := 0
	for i := 0; i < len(es)-1; i++ {
		acc += es[i].count
		if acc*2 >= total {
			cut = i + 1
			break
		}
	}
	return newColorBox(es[:cut]), newColorBox(es[cut:])
}

// mean returns the pixel-weighted average colour of the box.
func (b colorBox) mean() [4]uint8 {
	var sum [4]int
	n := 0
	for _, e := range b.entries {
		for ch := 0; ch < 4; ch++ {
			sum[ch] += int(e.c[ch]) * e.count
		}
		n += e.count
	}
	var c [4]uint8
	for ch := 0; ch < 4; ch++ {
		c[ch] = uint8((sum[ch] + n/2) / n)
	}
	return c
}

// medianCut partitions entries into at most n boxes, always splitting the
// box with the widest channel extent next.
func medianCut(ctx context.Context, entries []histEntry, n int) ([]colorBox, error) {
	boxes := []colorBox{newColorBox(entries)}
	for len(boxes) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best, bestExtent := -1, 0
		for i, b := range boxes {
			if len(b.entries) < 2 {
				continue
			}
			if _, r := b.widest(); r > bestExtent {
				best, bestExtent = i, r
			}
		}
		if best < 0 {
			break
		}
		a, c := boxes[best].split()
		boxes[best] = a
		boxes = append(boxes, c)
	}
	return boxes, nil
}

// coarsen returns the entries median cut works on and, for every input
// entry, the index of the bucket holding it. Histograms within
// maxCutEntries pass through unchanged. Larger ones drop low channel bits
// until they fit or four bits per channel remain; each bucket carries the
// pixel-weighted mean of its colours.
func coarsen(ctx context.Context, entries []histEntry) ([]histEntry, []int, error) {
	owner := make([]int, len(entries))
	if len(entries) <= maxCutEntries {
		buckets := make([]histEntry, len(entries))
		for i, e := range entries {
			e.id = i
			buckets[i] = e
			owner[i] = i
		}
		return buckets, owner, nil
	}

	for bits := 7; ; bits-- {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		m := colorKey(0xFF<<(8-bits)) & 0xFF
		mask := m | m<<8 | m<<16 | m<<24

		index := make(map[colorKey]int, maxCutEntries)
		var keys []colorKey
		var sums [][5]int // weighted r, g, b, a and the pixel count
		for i, e := range entries {
			bk := e.key & mask
			j, ok := index[bk]
			if !ok {
				j = len(keys)
				index[bk] = j
				keys = append(keys, bk)
				sums = append(sums, [5]int{})
			}
			for ch := 0; ch < 4; ch++ {
				sums[j][ch] += int(e.c[ch]) * e.count
			}
			sums[j][4] += e.count
			owner[i] = j
		}
		if len(keys) > maxCutEntries && bits > 4 {
			continue
		}

		buckets := make([]histEntry, len(keys))
		for j, k := range keys {
			n := sums[j][4]
			var c [4]uint8
			for ch := 0; ch < 4; ch++ {
				c[ch] = uint8((sums[j][ch] + n/2) / n)
			}
			buckets[j] = histEntry{key: k, c: c, count: n, id: j}
		}
		return buckets, owner, nil
	}
}

// palette is a quantized colour table with a lookup for every colour of
// the histogram it was built from. Non-opaque entries come first so that
// tRNS only needs to cover the leading entries.
type palette struct {
	colors    [][4]uint8
	nonOpaque int
	lookup    map[colorKey]uint8
}

// buildPalette reduces the histogram to at most maxColors entries. When the
// histogram already fits, every colour is kept exactly. A fully transparent
// entry is reserved whenever transparency is present and the budget allows.
func buildPalette(ctx context.Context, h histogram, maxColors int) (*palette, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, hasTransparent := h[0]
	reserve := hasTransparent && maxColors >= 2

	entries := make([]histEntry, 0, len(h))
	for k, n := range h {
		if k == 0 && reserve {
			continue
		}
		entries = append(entries, histEntry{key: k, c: k.rgba(), count: n})
	}
	slices.SortFunc(entries, func(x, y histEntry) int { return cmp.Compare(x.key, y.key) })

	budget := maxColors
	if reserve {
		budget--
	}

	var colors [][4]uint8
	if reserve {
		colors = append(colors, [4]uint8{})
	}
	base := len(colors)
	slot := make([]int, len(entries)) // colour index of every entry

	if len(entries) <= budget {
		for i, e := range entries {
			slot[i] = len(colors)
			colors = append(colors, e.c)
		}
	} else {
		buckets, owner, err := coarsen(ctx, entries)
		if err != nil {
			return nil, err
		}
		boxes, err := medianCut(ctx, buckets, budget)
		if err != nil {
			return nil, err
		}
		boxOf := make([]int, len(buckets))
		for bi, b := range boxes {
			colors = append(colors, b.mean())
			for _, e := range b.entries {
				boxOf[e.id] = bi
			}
		}
		for i := range entries {
			slot[i] = base + boxOf[owner[i]]
		}
	}

	// Stable reorder: non-opaque entries first.
	order := make([]int, 0, len(colors))
	for i, c := range colors {
		if c[3] != 255 {
			order = append(order, i)
		}
	}
	nonOpaque := len(order)
	for i, c := range colors {
		if c[3] == 255 {
			order = append(order, i)
		}
	}

	p := &palette{
		colors:    make([][4]uint8, len(colors)),
		nonOpaque: nonOpaque,
		lookup:    make(map[colorKey]uint8, len(h)),
	}
	remap := make([]int, len(colors))
	for idx, src := range order {
		p.colors[idx] = colors[src]
		remap[src] = idx
	}
	if reserve {
		p.lookup[0] = uint8(remap[0])
	}
	for i, e := range entries {
		p.lookup[e.key] = uint8(remap[slot[i]])
	}
	return p, nil
}

// indexRows maps a straight RGBA8 frame onto palette indices, producing
// scanlines prefixed with filter type None.
func (p *palette) indexRows(pix []byte, width, height int) []byte {
	stride := width + 1
	out := make([]byte, height*stride)

	var prevKey colorKey
	prevIdx := p.lookup[0]
	for y := 0; y < height; y++ {
		row := out[y*stride : (y+1)*stride]
		row[0] = filterNone
		src := pix[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			i := x * 4
			k := pack(src[i], src[i+1], src[i+2], src[i+3])
			if k != prevKey {
				prevKey, prevIdx = k, p.lookup[k]
			}
			row[x+1] = prevIdx
		}
	}
	return out
}
