// Command img2ascii renders images as ASCII art by matching image tiles
// against the brightness of a monospaced font's glyphs.
package main

func main() {
	Execute()
}
