package psd

// FlattenFilter decides whether a layer participates in a Flatten call,
// given its index in the Psd's public top-first Layers() sequence.
type FlattenFilter func(index int, layer *Layer) bool

// flatten implements §4.8: process layers bottom-to-top (the reverse of
// the public top-first order), skipping section-divider/group rows,
// filtered-out layers, invisible layers, and layers entirely outside the
// document, compositing each survivor with source-over alpha blending
// under its own opacity.
func flatten(layers []*Layer, filter FlattenFilter, strictBlend bool, docW, docH int) ([]byte, error) {
	dst := make([]byte, docW*docH*4)

	for i := len(layers) - 1; i >= 0; i-- {
		layer := layers[i]

		if layer.IsGroup() {
			continue
		}
		if filter != nil && !filter(i, layer) {
			continue
		}
		if !layer.Visible() {
			continue
		}
		if int(layer.Right()) <= 0 || int(layer.Bottom()) <= 0 ||
			int(layer.Left()) >= docW || int(layer.Top()) >= docH {
			continue
		}

		if strictBlend && !isNormalBlend(layer.BlendModeKey()) {
			return nil, &UnsupportedBlendModeError{Key: layer.BlendModeKey()}
		}

		src, err := layer.Rgba()
		if err != nil {
			return nil, err
		}

		compositeSourceOver(dst, src, layer.Opacity())
	}

	return dst, nil
}

// compositeSourceOver blends src over dst in place, per pixel, under a
// uniform layer opacity alpha (0..255).
func compositeSourceOver(dst, src []byte, opacity uint8) {
	layerAlpha := float64(opacity) / 255.0

	for i := 0; i+3 < len(dst); i += 4 {
		srcA := (float64(src[i+3]) / 255.0) * layerAlpha
		dstA := float64(dst[i+3]) / 255.0
		outA := srcA + dstA*(1-srcA)

		if outA <= 0 {
			dst[i] = 0
			dst[i+1] = 0
			dst[i+2] = 0
			dst[i+3] = 0
			continue
		}

		for c := 0; c < 3; c++ {
			srcC := float64(src[i+c])
			dstC := float64(dst[i+c])
			outC := (srcC*srcA + dstC*dstA*(1-srcA)) / outA
			dst[i+c] = clampFloatToByte(float32(outC / 255.0))
		}
		dst[i+3] = clampFloatToByte(float32(outA))
	}
}
