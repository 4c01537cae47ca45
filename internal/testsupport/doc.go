// Package testsupport holds helpers shared by package tests: temp-dir backed
// configs, scripted stub sources that count their calls, folder fixtures and
// a journal opener.
package testsupport
