package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ftl/radarview/rx"
	"github.com/ftl/radarview/scope"
)

var serialFlags = struct {
	port     string
	baudRate int
}{}

var serialCmd = &cobra.Command{
	Use:   "serial",
	Short: "display the tracks and ADC frames received line by line from a serial port",
	Run:   runWithCtx(runSerial),
}

var serialListCmd = &cobra.Command{
	Use:   "list",
	Short: "list the available serial ports",
	Run:   runSerialList,
}

func init() {
	rootCmd.AddCommand(serialCmd)
	serialCmd.AddCommand(serialListCmd)
	addPipelineFlags(serialCmd)

	serialCmd.Flags().StringVar(&serialFlags.port, "port", envString("RADARVIEW_SERIAL_PORT", "/dev/ttyUSB0"), "the serial port")
	serialCmd.Flags().IntVar(&serialFlags.baudRate, "baud", envInt("RADARVIEW_SERIAL_BAUD", rx.DefaultBaudRate), "the baud rate of the serial port")
}

func runSerial(ctx context.Context, s scope.Scope, cmd *cobra.Command, args []string) {
	port, err := rx.OpenSerialPort(serialFlags.port, serialFlags.baudRate)
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	runPipeline(ctx, s, false, port.Monitor)
}

func runSerialList(cmd *cobra.Command, args []string) {
	names, err := rx.SerialPortNames()
	if err != nil {
		log.Fatal(err)
	}
	if len(names) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}
