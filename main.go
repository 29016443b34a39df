// This is the main-driver for our compiler.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/dhwatson/minic/asmir"
	"github.com/dhwatson/minic/compiler"
	"github.com/dhwatson/minic/cstack"
)

func main() {
	os.Exit(run())
}

// run is split out from main so that os.Exit doesn't short-circuit
// deferred cleanup - the cleanup stack must unwind before we report a
// status code.
func run() int {

	//
	// Look for flags.
	//
	debug := flag.Bool("debug", false, "Dump pipeline stages to stderr; the generated assembly is unchanged.")
	targetName := flag.String("target", defaultTargetName(), "Assembly target: \"darwin\" or \"linux\".")
	asmOnly := flag.Bool("S", false, "Emit assembly only; skip assembling and linking.")
	output := flag.String("o", "", "The path to write the compiled binary to (defaults to the source path without its extension).")
	run := flag.Bool("run", false, "Run the compiled binary, and report its exit status.")
	flag.Parse()

	//
	// Ensure we have a source file as our single argument.
	//
	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: minic [flags] path/to/source.c\n")
		return 1
	}
	path := flag.Args()[0]

	target, err := parseTarget(*targetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	//
	// Read the source file.
	//
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", path, errors.Wrap(err, "read source"))
		return 1
	}

	//
	// Create a compiler-object, with the program as input.
	//
	comp := compiler.New(string(source))
	comp.SetTarget(target)

	if *debug {
		comp.SetDebug(true)
		comp.SetDebugOutput(os.Stderr)
	}

	//
	// Compile.
	//
	asm, err := comp.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling %s: %s\n", path, err)
		return 1
	}

	//
	// cleanup tracks every temporary path we create, in the order we
	// create them, so we can remove them in reverse once we're done -
	// regardless of whether we succeed or bail out early.
	//
	cleanup := cstack.New[string]()
	defer removeAll(cleanup)

	base := strings.TrimSuffix(path, filepath.Ext(path))
	asmPath := base + ".s"

	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %s\n", asmPath, errors.Wrap(err, "write assembly"))
		return 1
	}

	//
	// If we're only emitting assembly, it's the final artifact, not a
	// temporary one - don't track it for cleanup.
	//
	if *asmOnly {
		fmt.Println(asmPath)
		return 0
	}
	cleanup.Push(asmPath)

	binPath := *output
	if binPath == "" {
		binPath = base
	}

	if err := assembleAndLink(asmPath, binPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error assembling/linking %s: %s\n", asmPath, err)
		return 1
	}

	//
	// Running the binary too?
	//
	if *run {
		exe := exec.Command(binPath)
		exe.Stdout = os.Stdout
		exe.Stderr = os.Stderr
		runErr := exe.Run()

		if _, isExitErr := runErr.(*exec.ExitError); runErr != nil && !isExitErr {
			fmt.Fprintf(os.Stderr, "Error running %s: %s\n", binPath, errors.Wrap(runErr, "run binary"))
			return 1
		}

		status := exitStatus(runErr)
		fmt.Printf("%s exited with status %d\n", binPath, status)
		return status
	}

	return 0
}

// assembleAndLink shells out to the system C compiler to assemble and
// link asmPath into binPath - the external collaborator spec.md §1
// explicitly puts out of this package's scope.
func assembleAndLink(asmPath, binPath string) error {
	cc := exec.Command("cc", "-o", binPath, asmPath)
	cc.Stdout = os.Stdout
	cc.Stderr = os.Stderr
	if err := cc.Run(); err != nil {
		return errors.Wrap(err, "invoke system assembler/linker")
	}
	return nil
}

func defaultTargetName() string {
	if runtime.GOOS == "darwin" {
		return "darwin"
	}
	return "linux"
}

func parseTarget(name string) (asmir.Target, error) {
	switch name {
	case "darwin":
		return asmir.Darwin(), nil
	case "linux":
		return asmir.SystemV(), nil
	default:
		return asmir.Target{}, fmt.Errorf("unknown target %q (want \"darwin\" or \"linux\")", name)
	}
}

func removeAll(cleanup *cstack.Stack[string]) {
	for !cleanup.Empty() {
		path, err := cleanup.Pop()
		if err != nil {
			return
		}
		os.Remove(path)
	}
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return 1
}
