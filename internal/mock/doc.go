/*
Package mock contains mock implementations of interfaces defined in Lambda,
intended for use in unit-tests.

Mocks are generated by mockgen into a directory named after the package that
defines the interface. As an example, mocks for the "latex" package are
found in `./latex/`.

The package name of all mock implementations follows the `mock_*` pattern,
where `*` is the original package name.
*/
package mock

//go:generate mockgen -destination=latex/cursor.go -package=mock_latex github.com/Neumenon/lambda/latex Cursor
