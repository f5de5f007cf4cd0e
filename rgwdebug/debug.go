// Package rgwdebug provides invariant-violation assertions.
//
// These are the only panics permitted in the core: a violated precondition
// in the reservation queue or an unsupported operation on the worker pool.
// Recoverable, request-level failures must never reach here.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgwdebug

import "fmt"

// Assert panics if cond is false. Reserved for programming errors only -
// never for recoverable request-level failures.
func Assert(cond bool) {
	if !cond {
		panic("assertion failed")
	}
}

// Assertf panics with a formatted message if cond is false.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// AssertNoErr panics if err is non-nil. Used at call sites where an error
// would indicate a logic bug rather than an expected failure mode (e.g.
// marshaling a value this package constructed itself).
func AssertNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
