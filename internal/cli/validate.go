package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halverson/orrery/internal/scene"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Scene  string        `json:"scene"`
	Errors []SchemaError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scene.json>",
		Short: "Validate a scene document without running it",
		Long: `Validate a scene document against the scene schema, then check its
referential integrity and loadability without starting the engine.

Performed in order: JSON syntax, schema conformance, reference checks
(motion targets, constraint endpoints), and a full load into runtime state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scenePath string, cmd *cobra.Command) error {
	formatter := formatterFor(opts, cmd)

	scn, schemaErrs, err := loadSceneFile(scenePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read scene", err)
	}

	// A decoded scene can still fail to load, e.g. a motion that targets
	// a rigid entity. Surface those as validation errors too.
	if len(schemaErrs) == 0 {
		if _, loadErr := scene.Load(scn); loadErr != nil {
			schemaErrs = append(schemaErrs, SchemaError{Message: loadErr.Error()})
		}
	}

	if len(schemaErrs) > 0 {
		return outputValidationErrors(formatter, scenePath, schemaErrs)
	}

	if opts.Format == "json" {
		if err := formatter.Success(ValidationResult{Valid: true, Scene: scenePath}); err != nil {
			return err
		}
		return nil
	}
	formatter.VerboseLog("entities=%d motions=%d constraints=%d", len(scn.Entities), len(scn.Motions), len(scn.Constraints))
	return formatter.Success(fmt.Sprintf("Scene %s is valid.", scenePath))
}

func outputValidationErrors(formatter *OutputFormatter, scenePath string, errs []SchemaError) error {
	if formatter.Format == "json" {
		if err := formatter.Error(ErrCodeSceneSchema, fmt.Sprintf("scene %s is invalid", scenePath), ValidationResult{
			Valid:  false,
			Scene:  scenePath,
			Errors: errs,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "Scene %s is invalid:\n", scenePath)
		for _, e := range errs {
			fmt.Fprintf(formatter.Writer, "  - %s\n", e.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(errs)))
}
