package hdeyeaux

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	"github.com/soypat/hdeye"
)

type RenderConfig struct {
	// Output receives the subshader text.
	Output io.Writer
	// DepsOutput receives the source asset identifiers of the subshader, one per line.
	DepsOutput io.Writer
	// VariantsOutput receives the program key of every generated pass, one per line.
	VariantsOutput io.Writer
	Mode           hdeye.Mode
	Silent         bool
	// Debug enables debug diagnostics of the generator.
	Debug bool
	// SubShader overrides the eye subshader generator when not nil.
	SubShader *hdeye.SubShader
}

// Render is an auxiliary function to aid users in getting setup in generating eye
// subshaders quickly. Applications embedding the generator should call
// [hdeye.SubShader.AppendSubShader] directly.
func Render(m *hdeye.Material, cfg RenderConfig) error {
	_, err := render(m, cfg)
	return err
}

func render(m *hdeye.Material, cfg RenderConfig) (variants []hdeye.PassVariant, err error) {
	if cfg.Output == nil {
		return nil, errors.New("Render requires output parameter in config")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	ss := subshader(cfg)
	var deps []uuid.UUID
	var depsOut *[]uuid.UUID
	if cfg.DepsOutput != nil {
		depsOut = &deps
	}
	watch := stopwatch()
	text, err := ss.AppendSubShader(nil, m, cfg.Mode, depsOut)
	if err != nil {
		return nil, err
	}
	log("generated", len(text), "bytes of", cfg.Mode, "subshader in", watch())
	_, err = cfg.Output.Write(text)
	if err != nil {
		return nil, err
	}
	if cfg.DepsOutput != nil {
		err = WriteDeps(cfg.DepsOutput, deps)
		if err != nil {
			return nil, err
		}
		log("wrote", len(deps), "dependencies")
	}
	if cfg.VariantsOutput != nil {
		variants, err = ss.Variants(m, cfg.Mode)
		if err != nil {
			return nil, err
		}
		err = WriteVariants(cfg.VariantsOutput, variants)
		if err != nil {
			return nil, err
		}
	}
	return variants, nil
}

// RenderFile loads the material description in filename and renders it with cfg.
func RenderFile(filename string, cfg RenderConfig) error {
	_, err := renderFile(filename, cfg)
	return err
}

func renderFile(filename string, cfg RenderConfig) ([]hdeye.PassVariant, error) {
	m, err := LoadMaterialFile(filename)
	if err != nil {
		return nil, err
	}
	return render(m, cfg)
}

// batchPool runs the tasks of every batch. Workers of the pool never exit on
// their own and stopping them is unreliable, so a single pool is grown to the
// largest worker count requested and reused.
var batchPool struct {
	mu   sync.Mutex
	pool worker.DynamicWorkerPool
}

func batchWorkers(n int) worker.DynamicWorkerPool {
	batchPool.mu.Lock()
	defer batchPool.mu.Unlock()
	if batchPool.pool == nil {
		batchPool.pool = worker.NewDynamicWorkerPool(n, 256, 1*time.Second)
	} else if grow := n - batchPool.pool.GetMaxWorkers(); grow > 0 {
		batchPool.pool.IncreaseMaxWorkers(grow)
	}
	return batchPool.pool
}

// RenderBatch generates the subshaders of the material description files concurrently
// using at most the given amount of workers. For each file a .shader, a .deps and
// a .variants file named after it are written to outDir. cfg's outputs are ignored.
// All files are attempted, failures are joined in the returned error.
func RenderBatch(filenames []string, outDir string, workers int, cfg RenderConfig) error {
	if workers <= 0 {
		return errors.New("RenderBatch requires a positive number of workers")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	// The subshader is read-only during generation and shared by all tasks.
	cfg.SubShader = subshader(cfg)
	cfg.Silent = true
	errs := make([]error, len(filenames))
	queue := make(chan int, len(filenames))
	for i := range filenames {
		queue <- i
	}
	close(queue)

	var mu sync.Mutex
	unique := make(map[uint64]struct{})
	pool := batchWorkers(workers)
	var wg sync.WaitGroup
	watch := stopwatch()
	for lane := range min(workers, len(filenames)) {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: lane,
			Do: func() (any, error) {
				defer wg.Done()
				for idx := range queue {
					fname := filenames[idx]
					variants, err := renderToDir(fname, outDir, cfg)
					if err != nil {
						errs[idx] = fmt.Errorf("%s: %w", fname, err)
						continue
					}
					mu.Lock()
					for _, v := range variants {
						unique[v.Key] = struct{}{}
					}
					mu.Unlock()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	err := errors.Join(errs...)
	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	log("generated", len(filenames)-failed, "of", len(filenames), "subshaders with", workers, "workers in", watch())
	log("compiling", len(unique), "unique pass programs")
	return err
}

func renderToDir(filename, outDir string, cfg RenderConfig) (_ []hdeye.PassVariant, err error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var files [3]*os.File
	defer func() {
		for _, fp := range files {
			if fp != nil {
				err = errors.Join(err, fp.Close())
			}
		}
	}()
	for i, ext := range [3]string{".shader", ".deps", ".variants"} {
		files[i], err = os.Create(filepath.Join(outDir, base+ext))
		if err != nil {
			return nil, err
		}
	}
	cfg.Output = files[0]
	cfg.DepsOutput = files[1]
	cfg.VariantsOutput = files[2]
	return renderFile(filename, cfg)
}

// WriteVariants writes one line per pass holding its light mode and its
// program key as 16 hexadecimal digits.
func WriteVariants(w io.Writer, variants []hdeye.PassVariant) error {
	bw := bufio.NewWriter(w)
	for _, v := range variants {
		fmt.Fprintf(bw, "%s %016x\n", v.LightMode, v.Key)
	}
	return bw.Flush()
}

// WriteDeps writes the identifiers in deps to w as 32 digit hexadecimal strings, one per line.
func WriteDeps(w io.Writer, deps []uuid.UUID) error {
	bw := bufio.NewWriter(w)
	for _, id := range deps {
		bw.WriteString(FormatGUID(id))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// FormatGUID formats id the way asset identifiers are written in asset
// metadata: 32 lowercase hexadecimal digits without dashes.
func FormatGUID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

func subshader(cfg RenderConfig) *hdeye.SubShader {
	if cfg.SubShader != nil {
		return cfg.SubShader
	}
	logger := hdeye.NewDefaultLogger("hdeye", cfg.Debug)
	if cfg.Silent {
		logger = hdeye.NopLogger()
	}
	return hdeye.NewEyeSubShader(logger)
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
