package metadata

import (
	"fmt"
	"strings"
)

/**
 * @brief A programmable pipeline stage that may independently reference resources.
 * Each stage owns its own buffer, texture and sampler index spaces.
 */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageTessCtl
	ShaderStageTessEval
	ShaderStageFragment
	ShaderStageCompute
	/** @brief Number of stages tracked. Not a valid stage. */
	ShaderStageMax
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageTessCtl:
		return "tess_control"
	case ShaderStageTessEval:
		return "tess_eval"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	}
	return fmt.Sprintf("ShaderStage(%d)", int(s))
}

// Flag returns the stage mask bit for the stage.
func (s ShaderStage) Flag() ShaderStageFlags {
	switch s {
	case ShaderStageVertex:
		return ShaderStageVertexBit
	case ShaderStageTessCtl:
		return ShaderStageTessControlBit
	case ShaderStageTessEval:
		return ShaderStageTessEvaluationBit
	case ShaderStageFragment:
		return ShaderStageFragmentBit
	case ShaderStageCompute:
		return ShaderStageComputeBit
	}
	return 0
}

// ShaderStages returns every tracked stage in index order.
func ShaderStages() [ShaderStageMax]ShaderStage {
	return [ShaderStageMax]ShaderStage{
		ShaderStageVertex,
		ShaderStageTessCtl,
		ShaderStageTessEval,
		ShaderStageFragment,
		ShaderStageCompute,
	}
}

/** @brief A mask of shader stages. Bit values match VkShaderStageFlagBits. */
type ShaderStageFlags uint32

const (
	ShaderStageVertexBit         ShaderStageFlags = 0x00000001
	ShaderStageTessControlBit    ShaderStageFlags = 0x00000002
	ShaderStageTessEvaluationBit ShaderStageFlags = 0x00000004
	ShaderStageGeometryBit       ShaderStageFlags = 0x00000008
	ShaderStageFragmentBit       ShaderStageFlags = 0x00000010
	ShaderStageComputeBit        ShaderStageFlags = 0x00000020
	ShaderStageAllGraphics       ShaderStageFlags = 0x0000001F
	ShaderStageAll               ShaderStageFlags = 0x7FFFFFFF
)

// Has reports whether the mask includes the stage.
func (f ShaderStageFlags) Has(stage ShaderStage) bool {
	bit := stage.Flag()
	return bit != 0 && f&bit == bit
}

// Any reports whether the mask includes at least one tracked stage.
func (f ShaderStageFlags) Any() bool {
	for _, stage := range ShaderStages() {
		if f.Has(stage) {
			return true
		}
	}
	return false
}

func (f ShaderStageFlags) String() string {
	names := make([]string, 0, ShaderStageMax)
	for _, stage := range ShaderStages() {
		if f.Has(stage) {
			names = append(names, stage.String())
		}
	}
	return strings.Join(names, "|")
}

func ShaderStageFromString(s string) (ShaderStage, error) {
	switch strings.ToLower(s) {
	case "vertex", "vert":
		return ShaderStageVertex, nil
	case "tess_control", "tesc":
		return ShaderStageTessCtl, nil
	case "tess_eval", "tese":
		return ShaderStageTessEval, nil
	case "fragment", "frag":
		return ShaderStageFragment, nil
	case "compute", "comp":
		return ShaderStageCompute, nil
	}
	return 0, fmt.Errorf("string %s is not a valid ShaderStage", s)
}

// ShaderStageFlagsFromStrings builds a mask from stage names. "all" and
// "all_graphics" are accepted as shorthands.
func ShaderStageFlagsFromStrings(names []string) (ShaderStageFlags, error) {
	var flags ShaderStageFlags
	for _, name := range names {
		switch strings.ToLower(name) {
		case "all":
			flags |= ShaderStageAll
			continue
		case "all_graphics":
			flags |= ShaderStageAllGraphics
			continue
		}
		stage, err := ShaderStageFromString(name)
		if err != nil {
			return 0, err
		}
		flags |= stage.Flag()
	}
	return flags, nil
}
