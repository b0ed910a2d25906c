// Command hintctl drives the free page hinting engine against a simulated
// guest and inspects hint streams.
package main

func main() {
	execute()
}
