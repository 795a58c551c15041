package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lumen-render/lumen/pkg/core"
	"github.com/lumen-render/lumen/pkg/geometry"
	"github.com/lumen-render/lumen/pkg/lights"
	"github.com/lumen-render/lumen/pkg/material"
	"github.com/lumen-render/lumen/pkg/scene"
	"github.com/lumen-render/lumen/pkg/sensor"

	// Optional GPU backend, selected with -backend=wgpu.
	_ "github.com/lumen-render/lumen/pkg/accel/gpu"
)

func main() {
	sceneType := flag.String("scene", "default", "Scene type: 'default' or 'cornell'")
	backend := flag.String("backend", "bvh", "Acceleration backend: 'bvh', 'rtree' or 'wgpu'")
	width := flag.Int("width", 400, "Image width in pixels")
	samples := flag.Int("samples", 50, "Samples per pixel")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Lumen renderer")
		fmt.Println("Usage: lumen [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		fmt.Println("  default - Spheres on a ground plane under a sky emitter")
		fmt.Println("  cornell - Cornell box with quad walls and area lighting")
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene_type>/render_<timestamp>.png")
		return
	}

	var objects []core.Object
	var height int
	switch *sceneType {
	case "cornell":
		objects = cornellObjects()
		height = *width // square aspect for the box
	case "default":
		objects = defaultObjects()
		height = *width * 9 / 16
	default:
		fmt.Printf("Unknown scene type: %s. Using default scene.\n", *sceneType)
		objects = defaultObjects()
		height = *width * 9 / 16
		*sceneType = "default"
	}

	s, err := scene.New(objects, scene.WithBackend(*backend))
	if err != nil {
		fmt.Printf("Error building scene: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	fmt.Println(s)

	outputDir := filepath.Join("output", *sceneType)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	startTime := time.Now()
	img := render(s, *width, height, *samples)
	fmt.Printf("Render completed in %v\n", time.Since(startTime))

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	file, err := os.Create(filename)
	if err != nil {
		fmt.Printf("Error creating file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		fmt.Printf("Error saving PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// render traces the scene through its first sensor. Rows are rendered in
// parallel; scene queries are read-only after construction so the workers
// share the scene without locking.
func render(s *scene.Scene, width, height, samplesPerPixel int) image.Image {
	cam := s.Sensors()[0]
	li := s.Integrator()
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	var wg sync.WaitGroup
	for y := 0; y < height; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			sampler := core.NewRandomSampler(rand.New(rand.NewSource(int64(y) + 1)))
			for x := 0; x < width; x++ {
				var sum core.Vec3
				for i := 0; i < samplesPerPixel; i++ {
					u := (float64(x) + sampler.Get1D()) / float64(width)
					v := 1 - (float64(y)+sampler.Get1D())/float64(height)
					ray, weight := cam.SampleRay(core.NewVec2(u, v), sampler.Get2D())
					sum = sum.Add(li.Li(ray, s, sampler).MultiplyVec(weight))
				}
				img.Set(x, y, toColor(sum.Multiply(1/float64(samplesPerPixel))))
			}
		}(y)
	}
	wg.Wait()
	return img
}

// toColor gamma-corrects (gamma 2) and quantizes a radiance value
func toColor(v core.Vec3) color.RGBA {
	quantize := func(c float64) uint8 {
		c = math.Sqrt(math.Max(0, c))
		if c > 1 {
			c = 1
		}
		return uint8(255.999 * c)
	}
	return color.RGBA{R: quantize(v.X), G: quantize(v.Y), B: quantize(v.Z), A: 255}
}

// defaultObjects is a small open scene: two spheres on a ground quad, lit
// by a quad light and a dim sky
func defaultObjects() []core.Object {
	ground := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	red := material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3))
	blue := material.NewLambertian(core.NewVec3(0.3, 0.3, 0.7))

	return []core.Object{
		geometry.NewQuad(core.NewVec3(-50, 0, -50), core.NewVec3(100, 0, 0), core.NewVec3(0, 0, 100), ground),
		geometry.NewSphere(core.NewVec3(-1.1, 1, 0), 1, red),
		geometry.NewSphere(core.NewVec3(1.1, 1, 0), 1, blue),
		lights.NewQuadLight(
			core.NewVec3(-1, 5, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2),
			core.NewVec3(12, 12, 12)),
		lights.NewUniformInfiniteLight(core.NewVec3(0.05, 0.07, 0.1)),
		sensor.NewPerspective(
			core.NewVec3(0, 2, 8), core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0),
			40, 16.0/9.0, 0.01, 100),
	}
}

// cornellObjects is the classic box: five walls, two spheres and a ceiling
// area light
func cornellObjects() []core.Object {
	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	return []core.Object{
		// floor, ceiling, back wall
		geometry.NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(555, 0, 0), core.NewVec3(0, 0, 555), white),
		geometry.NewQuad(core.NewVec3(0, 555, 0), core.NewVec3(0, 0, 555), core.NewVec3(555, 0, 0), white),
		geometry.NewQuad(core.NewVec3(0, 0, 555), core.NewVec3(555, 0, 0), core.NewVec3(0, 555, 0), white),
		// left (red) and right (green) walls
		geometry.NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 555), core.NewVec3(0, 555, 0), red),
		geometry.NewQuad(core.NewVec3(555, 0, 0), core.NewVec3(0, 555, 0), core.NewVec3(0, 0, 555), green),
		lights.NewQuadLight(
			core.NewVec3(213, 554, 227), core.NewVec3(130, 0, 0), core.NewVec3(0, 0, 105),
			core.NewVec3(15, 15, 15)),
		geometry.NewSphere(core.NewVec3(185, 90, 150), 90, white),
		geometry.NewSphere(core.NewVec3(370, 90, 350), 90, white),
		sensor.NewPerspective(
			core.NewVec3(278, 278, -800), core.NewVec3(278, 278, 0), core.NewVec3(0, 1, 0),
			40, 1, 0.1, 5000),
	}
}
