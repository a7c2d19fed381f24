package detection

import (
	"image"
	"testing"
)

func TestFace_Area(t *testing.T) {
	tests := []struct {
		face Face
		want float64
	}{
		{Face{W: 0.5, H: 0.5}, 0.25},
		{Face{W: 1, H: 1}, 1},
		{Face{W: 0.2, H: 0}, 0},
	}

	for _, tc := range tests {
		if got := tc.face.Area(); got != tc.want {
			t.Errorf("Area(%+v) = %v, want %v", tc.face, got, tc.want)
		}
	}
}

func TestFace_Rect(t *testing.T) {
	tests := []struct {
		name   string
		face   Face
		margin float64
		expect image.Rectangle
	}{
		{
			name:   "no margin",
			face:   Face{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			expect: image.Rect(160, 120, 480, 360),
		},
		{
			name:   "margin grows box",
			face:   Face{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			margin: 0.1,
			expect: image.Rect(128, 96, 512, 384),
		},
		{
			name:   "clipped at frame edge",
			face:   Face{X: 0.9, Y: 0.9, W: 0.2, H: 0.2},
			margin: 0.2,
			expect: image.Rect(550, 412, 640, 480),
		},
		{
			name:   "entirely outside",
			face:   Face{X: 1.5, Y: 1.5, W: 0.1, H: 0.1},
			expect: image.Rectangle{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.face.Rect(640, 480, tc.margin)
			if got != tc.expect {
				t.Errorf("Rect: got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestProminent(t *testing.T) {
	tests := []struct {
		name  string
		faces []Face
		want  int // index into faces, -1 for nil
	}{
		{"none", nil, -1},
		{"single", []Face{{W: 0.1, H: 0.1, Score: 0.7}}, 0},
		{
			name: "largest wins over confident background face",
			faces: []Face{
				{W: 0.1, H: 0.1, Score: 0.99},
				{W: 0.4, H: 0.4, Score: 0.7},
			},
			want: 1,
		},
		{
			name: "near tie goes to score",
			faces: []Face{
				{W: 0.30, H: 0.30, Score: 0.65},
				{W: 0.29, H: 0.30, Score: 0.95},
			},
			want: 1,
		},
		{
			name: "near tie keeps first when it scores higher",
			faces: []Face{
				{W: 0.30, H: 0.30, Score: 0.95},
				{W: 0.31, H: 0.30, Score: 0.65},
			},
			want: 0,
		},
		{
			name:  "zero area falls back to score",
			faces: []Face{{Score: 0.4}, {Score: 0.9}},
			want:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Prominent(tc.faces)
			if tc.want < 0 {
				if got != nil {
					t.Errorf("Prominent: got %+v, want nil", got)
				}
				return
			}
			if got != &tc.faces[tc.want] {
				t.Errorf("Prominent: got %+v, want %+v", got, tc.faces[tc.want])
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ModelPath == "" {
		t.Error("ModelPath should not be empty")
	}
	if cfg.ScoreThreshold <= 0 || cfg.ScoreThreshold > 1 {
		t.Errorf("ScoreThreshold should be in (0, 1], got %f", cfg.ScoreThreshold)
	}
	if cfg.TopK <= 0 {
		t.Errorf("TopK should be positive, got %d", cfg.TopK)
	}
	if cfg.MinSize < 0 || cfg.MinSize >= 1 {
		t.Errorf("MinSize should be in [0, 1), got %f", cfg.MinSize)
	}
}
