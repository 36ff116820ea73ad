package apitest

/**
	Needed so coverpkg works in CI: a package made only of _test.go files fails

	`go test ./... -coverpkg=./... -coverprofile=cover.out`

	with "no non-test Go files". See https://github.com/golang/go/issues/27333.
**/
