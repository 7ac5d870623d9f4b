// Command stare encodes, covers, compares and renders STARE spatial and
// temporal indices from the command line.
package main

func main() {
	Execute()
}
