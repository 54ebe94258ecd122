package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/schemaforge/internal/model"
)

// Load reads declarations from path. A .graphql or .gql file goes through
// the SDL front end; a .cue file or a directory of CUE files goes through
// the CUE front end.
func Load(path string) (*model.Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("declarations not found: %w", err)
	}

	if info.IsDir() {
		return loadCUEDir(path)
	}

	switch filepath.Ext(path) {
	case ".graphql", ".gql":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return FromSDL(string(data), path)
	case ".cue":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return FromCUESource(string(data), path)
	default:
		return nil, fmt.Errorf("unsupported declaration file %s: want .graphql, .gql or .cue", path)
	}
}

// FromCUESource compiles CUE text and extracts a model from it.
func FromCUESource(src, filename string) (*model.Model, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromCUE(v)
}

func loadCUEDir(dir string) (*model.Model, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromCUE(v)
}
