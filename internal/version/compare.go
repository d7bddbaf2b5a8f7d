package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// CheckResultsCompatibility checks whether a results folder written by
// writerVersion can be read by this engine build.
//
// Compatibility rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 reads 1.2.5 results)
func CheckResultsCompatibility(engineVersion, writerVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	writerVersion = strings.TrimPrefix(writerVersion, "v")

	if engineVersion == "main" || writerVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid engine version %q", engineVersion)
	}

	writerSemver, err := semver.NewVersion(writerVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid results version %q", writerVersion)
	}

	if engineSemver.Major() != writerSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"major version mismatch: engine is %d.x.x but results were written by %d.x.x",
			engineSemver.Major(), writerSemver.Major())
	}

	if engineSemver.Minor() != writerSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"minor version mismatch: engine is %d.%d.x but results were written by %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			writerSemver.Major(), writerSemver.Minor())
	}

	return nil
}
