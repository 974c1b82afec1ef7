/*
Package transit derives execution configurations: the configuration a build
action runs in, obtained from the configuration of the target that needs it
and the platform chosen to run it.

The derivation is the execution transition of pkg/transition. It marks the
result as an execution configuration, retargets it to the execution platform
and tags it with a distinguisher so that configurations which differ get
different output directories. The input configuration selects one of four
distinguisher modes through its experimental_exec_configuration_distinguisher
option: legacy, full_hash, diff_to_affected or off.

# Usage

	eng, err := transit.New(transit.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := eng.ParseOptions(
		"--platforms=//platform:target",
		"--experimental_exec_configuration_distinguisher=diff_to_affected",
	)
	if err != nil {
		log.Fatal(err)
	}

	platform := domain.Label("//platform:exec")
	execCfg, err := eng.Exec(ctx, cfg, &platform, nil)

Configurations are immutable values, so a result may be shared freely. With
WithStore results are memoized under the transition and the checksum of the
input; pkg/adapters/redis shares them between processes.
*/
package transit
