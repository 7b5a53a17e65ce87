package ui

import (
	"facewarp/internal/landmarks"
	"facewarp/internal/render"
)

// OverlaySource supplies the annotation layers drawn over the preview.
// Generation must change whenever either layer would.
type OverlaySource interface {
	Outlines() []render.ZoneOutline
	Landmarks() landmarks.Set
	Generation() uint64
}

// layerKey identifies one rasterized overlay state.
type layerKey struct {
	gen   uint64
	w, h  int
	zones bool
	marks bool
}

// composeLayers renders the enabled layers into a single w x h buffer.
func composeLayers(src OverlaySource, k layerKey) []byte {
	if src == nil || (!k.zones && !k.marks) {
		return nil
	}
	var zoneImg, markImg []byte
	if k.zones {
		zoneImg = render.Zones(k.w, k.h, src.Outlines()).Pix
	}
	if k.marks {
		markImg = render.Landmarks(k.w, k.h, src.Landmarks(), 1.5).Pix
	}
	switch {
	case zoneImg == nil:
		return markImg
	case markImg == nil:
		return zoneImg
	}
	for i := 0; i < len(zoneImg); i += 4 {
		if markImg[i+3] != 0 {
			copy(zoneImg[i:i+4], markImg[i:i+4])
		}
	}
	return zoneImg
}
