// Package hopskipjump implements the HopSkipJump decision-based attack.
//
// The attack needs nothing from the model beyond hard labels. Each
// iteration pulls the current adversarial candidate onto the decision
// boundary by bisection, estimates the boundary normal there from a
// batch of randomly perturbed probes, and takes a geometrically decaying
// step along that normal. Perturbation size is minimized under the L2 or
// LInf norm.
//
// # Usage
//
//	hsj, err := hopskipjump.New(func(o *hopskipjump.Options) {
//		o.Norm = norm.L2
//		o.MaxIter = 30
//	})
//	if err != nil {
//		return err
//	}
//
//	result, err := hsj.Run(ctx, model, sample, attack.Goal{OriginalLabel: label})
//
// Run is safe for concurrent use; every call owns its full search state,
// including the random source.
package hopskipjump
