package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/cwbudde/rankmorph/internal/driver"
	"github.com/cwbudde/rankmorph/internal/engine"
	"github.com/cwbudde/rankmorph/internal/kernel"
	"github.com/cwbudde/rankmorph/internal/matrix"
	"github.com/cwbudde/rankmorph/internal/pattern"
	"github.com/cwbudde/rankmorph/internal/quant"
	"github.com/spf13/cobra"
)

var (
	matrixPath   string
	outPath      string
	elementType  string
	nab          int
	kernelName   string
	interpolated bool
	p1, p2       float64
	radius       int64
	postProcess  string
	postA, postB float64
	postLog      uint
	arrayPos     int64
	runCount     int64
	runCPUProf   string
	runMemProf   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single sliding-aperture pass over a matrix file",
	Long:  `Loads a matrix file, runs the requested kernel across a ranged read, and writes the resulting floats as JSON.`,
	RunE:  runKernelCmd,
}

func init() {
	runCmd.Flags().StringVar(&matrixPath, "matrix", "", "Matrix file path (required)")
	runCmd.Flags().StringVar(&outPath, "out", "out.json", "Output JSON path")
	runCmd.Flags().StringVar(&elementType, "element-type", "u8", "Element type: bit, u8, u16, i32, i64, f32, f64")
	runCmd.Flags().IntVar(&nab, "nab", 8, "Number of analysed bits")
	runCmd.Flags().StringVar(&kernelName, "kernel", "averager", "Kernel: averager, summator")
	runCmd.Flags().BoolVar(&interpolated, "interpolated", false, "Use linear interpolation between histogram bars")
	runCmd.Flags().Float64Var(&p1, "p1", 0, "Lower percentile index, a rank in [0, aperture size], averager only")
	runCmd.Flags().Float64Var(&p2, "p2", 1, "Upper percentile index, a rank in [0, aperture size], averager only")
	runCmd.Flags().Int64Var(&radius, "radius", 1, "Symmetric aperture radius")
	runCmd.Flags().StringVar(&postProcess, "post", "identity", "Summator post-process: identity, linear, pow2")
	runCmd.Flags().Float64Var(&postA, "post-a", 1, "Linear post-process scale")
	runCmd.Flags().Float64Var(&postB, "post-b", 0, "Linear post-process offset")
	runCmd.Flags().UintVar(&postLog, "post-log", 1, "Pow2 post-process log2 divisor")
	runCmd.Flags().Int64Var(&arrayPos, "array-pos", 0, "First output element index")
	runCmd.Flags().Int64Var(&runCount, "count", 0, "Number of output elements (0 = to end of matrix)")

	runCmd.Flags().StringVar(&runCPUProf, "cpuprofile", "", "Write CPU profile to file")
	runCmd.Flags().StringVar(&runMemProf, "memprofile", "", "Write memory profile to file")

	runCmd.MarkFlagRequired("matrix")
	rootCmd.AddCommand(runCmd)
}

func runKernelCmd(cmd *cobra.Command, args []string) error {
	if runCPUProf != "" {
		f, err := os.Create(runCPUProf)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "output", runCPUProf)
	}

	slog.Info("Starting run", "matrix", matrixPath, "kernel", kernelName, "radius", radius)

	storage, err := matrix.LoadFile(matrixPath)
	if err != nil {
		return fmt.Errorf("failed to load matrix: %w", err)
	}

	elemType, err := quant.ParseElementType(elementType)
	if err != nil {
		return fmt.Errorf("invalid element type: %w", err)
	}

	pat, err := pattern.Window(radius)
	if err != nil {
		return fmt.Errorf("failed to build aperture pattern: %w", err)
	}

	opts := engine.KernelOptions{
		ElementType:          elemType,
		NumberOfAnalysedBits: nab,
		Interpolated:         interpolated,
		OptimiseGetRange:     true,
	}

	count := runCount
	if count <= 0 {
		count = storage.Length() - arrayPos
	}

	start := time.Now()

	var output []float64
	switch kernelName {
	case "averager":
		pct := engine.ConstPercentiles{P1: p1, P2: p2}
		output, err = engine.RunAverager(driver.NoopContext(), storage, pat, opts, pct, arrayPos, count)
	case "summator":
		post := postProcessFromFlags()
		output, err = engine.RunSummator(driver.NoopContext(), storage, pat, opts, post, arrayPos, count)
	default:
		return fmt.Errorf("unknown kernel: %s", kernelName)
	}
	if err != nil {
		return fmt.Errorf("kernel run failed: %w", err)
	}

	elapsed := time.Since(start)

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer outFile.Close()

	enc := json.NewEncoder(outFile)
	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	eps := float64(0)
	if elapsed.Seconds() > 0 {
		eps = float64(count) / elapsed.Seconds()
	}

	slog.Info("Run complete",
		"elapsed", elapsed,
		"count", count,
		"elements_per_second", fmt.Sprintf("%.0f", eps),
	)

	fmt.Printf("Wrote %s (%d elements, %.0f elements/sec)\n", outPath, count, eps)

	if runMemProf != "" {
		f, err := os.Create(runMemProf)
		if err != nil {
			return fmt.Errorf("failed to create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
		slog.Info("Memory profile written", "output", runMemProf)
	}

	return nil
}

func postProcessFromFlags() kernel.PostProcess {
	switch postProcess {
	case "linear":
		return kernel.Linear(postA, postB)
	case "pow2":
		log := postLog
		if log == 0 {
			log = 1
		}
		return kernel.PowerOfTwoMean(log)
	default:
		return kernel.Identity()
	}
}
