package scene

import "github.com/Faultbox/midgard-shadow/internal/engine/lighting"

// Demo returns a small courtyard: a ground slab, a ring of pillars and one
// light of each kind.
func Demo() *File {
	f := &File{
		Cameras: []CameraDesc{
			{Name: "main", Position: [3]float32{0, 18, 30}, Target: [3]float32{0, 0, 0}, FOV: 50, Near: 0.1, Far: 200},
		},
		Lights: []lighting.Desc{
			{Name: "sun", Kind: "directional", Longitude: 35, Latitude: 55, Cascades: 3},
			{Name: "lamp", Kind: "spot", Position: [3]float32{-6, 8, 4}, Direction: [3]float32{0.3, -1, -0.2}, Range: 20, ConeAngle: 35},
			{Name: "torch", Kind: "omni", Position: [3]float32{5, 3, -3}, Range: 12},
		},
		Boxes: []BoxDesc{
			{Name: "ground", Center: [3]float32{0, -0.5, 0}, Size: [3]float32{60, 1, 60}},
		},
	}

	pillars := [][3]float32{
		{-8, 2, -8}, {0, 2, -10}, {8, 2, -8},
		{-10, 2, 0}, {10, 2, 0},
		{-8, 2, 8}, {0, 2, 10}, {8, 2, 8},
	}
	for i, p := range pillars {
		f.Boxes = append(f.Boxes, BoxDesc{
			Name:   pillarName(i),
			Center: p,
			Size:   [3]float32{1.5, 4, 1.5},
		})
	}
	f.Boxes = append(f.Boxes, BoxDesc{Name: "crate", Center: [3]float32{2, 1, 1}, Size: [3]float32{2, 2, 2}})
	return f
}

func pillarName(i int) string {
	return "pillar-" + string(rune('a'+i))
}
