// Command ls8 is the command-line LS-8 emulator: it assembles and runs
// LS-8 programs, or just assembles them to a raw binary image.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ls8/ls8/pkg/asm"
	"github.com/ls8/ls8/pkg/cpu"
	"github.com/ls8/ls8/pkg/debugger"
	"github.com/ls8/ls8/pkg/ioport"
)

func main() {
	log.SetFlags(0)

	root := &cobra.Command{
		Use:   "ls8",
		Short: "LS-8 assembler and emulator",
	}

	root.AddCommand(newAsmCommand())
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newAsmCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "asm <file.asm>",
		Short: "assemble LS-8 source and write the raw byte image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			code, err := asm.Translate(string(src))
			if err != nil {
				return err
			}
			if output == "" {
				_, err := os.Stdout.Write(code)
				return err
			}
			return os.WriteFile(output, code, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newRunCommand() *cobra.Command {
	var (
		binary    bool
		debug     bool
		frequency uint64
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "assemble (unless --bin) and execute an LS-8 program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var code []byte
			if binary {
				code = raw
			} else {
				code, err = asm.Translate(string(raw))
				if err != nil {
					return err
				}
			}

			keyboard := ioport.NewChannelReader(16)
			go feedStdin(keyboard)

			machine := cpu.New(keyboard, ioport.NewStreamWriter(os.Stdout))
			if frequency > 0 {
				machine.SetTimerFrequency(frequency)
			}
			if err := machine.Load(code); err != nil {
				return err
			}

			if debug {
				return debugger.Run(machine)
			}
			return runToHalt(machine)
		},
	}
	cmd.Flags().BoolVar(&binary, "bin", false, "treat the input file as an already-assembled byte image")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "open the interactive debugger instead of running to completion")
	cmd.Flags().Uint64VarP(&frequency, "timer-frequency", "f", 0, "cycles between timer interrupts (0: use the default)")
	return cmd
}

func runToHalt(machine *cpu.CPU) error {
	for !machine.Halted() {
		if err := machine.Step(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
	return nil
}

// feedStdin is a minimal keyboard feeder for the CLI host: it copies
// stdin bytes into the channel-backed reader until stdin closes. Terminal
// raw-mode and echo suppression are left to whatever terminal the binary
// is launched from. It runs in debug mode too, alongside bubbletea's own
// reading of the terminal for its step and quit keys.
func feedStdin(r *ioport.ChannelReader) {
	defer r.Close()
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			r.Push(buf[0])
		}
		if err != nil {
			return
		}
	}
}
