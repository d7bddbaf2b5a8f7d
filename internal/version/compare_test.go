package version

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CompareTestSuite struct {
	suite.Suite
}

func TestCompareSuite(t *testing.T) {
	suite.Run(t, new(CompareTestSuite))
}

func (s *CompareTestSuite) TestExactMatch() {
	s.NoError(CheckResultsCompatibility("1.2.0", "1.2.0"))
}

func (s *CompareTestSuite) TestPatchDiffers() {
	s.NoError(CheckResultsCompatibility("1.2.1", "1.2.0"))
}

func (s *CompareTestSuite) TestMinorDiffers() {
	s.Error(CheckResultsCompatibility("1.3.0", "1.2.0"))
}

func (s *CompareTestSuite) TestMajorDiffers() {
	s.Error(CheckResultsCompatibility("2.0.0", "1.2.0"))
}

func (s *CompareTestSuite) TestDevBuildSkipsCheck() {
	s.NoError(CheckResultsCompatibility("main", "1.2.0"))
	s.NoError(CheckResultsCompatibility("1.2.0", "main"))
}

func (s *CompareTestSuite) TestVPrefixStripped() {
	s.NoError(CheckResultsCompatibility("v1.2.0", "1.2.3"))
}

func (s *CompareTestSuite) TestInvalidVersion() {
	s.Error(CheckResultsCompatibility("not-a-version", "1.2.0"))
}
