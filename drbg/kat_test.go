/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package drbg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPerformKnownAnswerTests(t *testing.T) {
	require.NoError(t, PerformKnownAnswerTests())
}

func TestKnownAnswerTestsDetectCorruption(t *testing.T) {
	// corrupt an expected value and check the harness notices
	saved := knownAnswerTests[0].step5Output
	defer func() { knownAnswerTests[0].step5Output = saved }()

	knownAnswerTests[0].step5Output = "00" + saved[2:]
	err := PerformKnownAnswerTests()
	require.Error(t, err)
	require.Contains(t, err.Error(), "test 1 step 5")
}
