package vulkan

import (
	"errors"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-bind/engine/core"
)

// ResultFromError maps an error of the binding core to the Vulkan result a driver
// would report for it.
func ResultFromError(err error) vk.Result {
	switch {
	case err == nil:
		return vk.Success
	case errors.Is(err, core.ErrFeatureNotPresent):
		return vk.ErrorFeatureNotPresent
	case errors.Is(err, core.ErrOutOfPoolMemory):
		return vk.ErrorOutOfPoolMemory
	case errors.Is(err, core.ErrInvalidBinding),
		errors.Is(err, core.ErrIncompatibleLayout),
		errors.Is(err, core.ErrImmutableSamplerViolation):
		return vk.ErrorInitializationFailed
	}
	return vk.ErrorUnknown
}

func VulkanResultString(result vk.Result, getExtended bool) string {
	// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
	switch result {
	case vk.Success:
		return ConditionalOperator(!getExtended, "VK_SUCCESS", "VK_SUCCESS Command successfully completed")
	case vk.ErrorFeatureNotPresent:
		return ConditionalOperator(!getExtended, "VK_ERROR_FEATURE_NOT_PRESENT", "VK_ERROR_FEATURE_NOT_PRESENT A requested feature is not supported.")
	case vk.ErrorOutOfPoolMemory:
		return ConditionalOperator(!getExtended, "VK_ERROR_OUT_OF_POOL_MEMORY", "VK_ERROR_OUT_OF_POOL_MEMORY A pool memory allocation has failed.")
	case vk.ErrorInitializationFailed:
		return ConditionalOperator(!getExtended, "VK_ERROR_INITIALIZATION_FAILED", "VK_ERROR_INITIALIZATION_FAILED Initialization of an object could not be completed for implementation-specific reasons.")
	}
	return ConditionalOperator(!getExtended, "VK_ERROR_UNKNOWN", "VK_ERROR_UNKNOWN An unknown error has occurred; either the application has provided invalid input, or an implementation failure has occurred.")
}

func ConditionalOperator(condition bool, res1, res2 string) string {
	if condition {
		return res1
	}
	return res2
}
