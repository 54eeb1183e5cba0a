package sim

import (
	"fmt"
	"io"

	"github.com/evolab/petri/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logGeneration logs one population's end-of-generation summary.
func logGeneration(gs telemetry.GenerationStats, champ telemetry.ChampionRecord) {
	Logf("=== Gen %d | %s ===", gs.Generation, gs.Population)
	Logf("Fitness: mean %.2f (std %.2f), p50 %.2f, max %.2f",
		gs.FitnessMean, gs.FitnessStd, gs.FitnessP50, gs.FitnessMax)
	Logf("Complexity: %.1f neurons, %.1f synapses, %d layers (champion %s: %d/%d)",
		gs.NeuronsMean, gs.SynapsesMean, gs.MaxLayers, champ.UID, champ.Neurons, champ.Synapses)
}
