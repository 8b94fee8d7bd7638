package metadata

type ResourceType int

/** @brief Resource types handled by the asset manager. */
const (
	/** @brief Not a resource the asset manager knows about. */
	ResourceTypeNone ResourceType = iota
	/** @brief Pipeline layout description (.layout.toml). */
	ResourceTypePipelineLayout
	/** @brief Binding core configuration (.config.toml). */
	ResourceTypeConfig
)

func (r ResourceType) String() string {
	switch r {
	case ResourceTypePipelineLayout:
		return "pipeline_layout"
	case ResourceTypeConfig:
		return "config"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The type of the resource. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource file in bytes. */
	DataSize uint64
	/** @brief The resource data. Its type depends on Type. */
	Data interface{}
}
