// Package testutil provides mock components and description builders for
// exercising supervised component trees in tests.
//
// The package ships three component families:
//
//   - Hello: a stateful leaf with a language and a greeting message
//   - Faulty: a leaf whose checkup fails randomly with a configurable
//     mean number of checkups between failures
//   - Lang: a two-phase-commit participant buffering language and message
//     updates between Begin and Commit
//
// Modules returns an artifact table exposing the component factories plus
// factories for the container kernels and the supervisor, so description
// trees can be loaded end to end through a StaticResolver. Desc and its
// siblings build the specs those trees are made of.
package testutil
