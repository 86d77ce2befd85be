package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/bootstrap"
	"github.com/tustunkok/pc-link/internal/db"
)

// migrateCmd applies pending migrations only
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dbPool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbPool.Close()

		return bootstrap.Migrate(ctx, dbPool, cfg.Database.MigrationsPath, lgr)
	},
}

// seedCmd migrates and creates the default curriculum
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default curriculum and assign it to students without one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithServices(cmd, func(context.Context, *bootstrap.Dependencies) error {
			fmt.Fprintln(cmd.OutOrStdout(), "default data ready")
			return nil
		})
	},
}

var newUser services.NewUser

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long: `Create a user account. The password may also be given in the
PCLINK_PASSWORD environment variable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := newUser
		in.Password = passwordFrom(in.Password)
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			user, err := deps.Services.Auth.CreateUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, staff=%t, superuser=%t)\n",
				user.Username, user.ID, user.IsStaff, user.IsSuperuser)
			return nil
		})
	},
}

var newPassword string

var setPasswordCmd = &cobra.Command{
	Use:   "set-password <username>",
	Short: "Replace the password of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := passwordFrom(newPassword)
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			if err := deps.Services.Auth.SetPassword(ctx, args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password of %s updated\n", args[0])
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import students or the course catalog from CSV files",
}

var importStudentsCmd = &cobra.Command{
	Use:   "students <file.csv>",
	Short: "Create or update students",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			resp, err := deps.Services.Import.ImportStudents(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "students: %d created, %d updated\n", resp.StudentsCreated, resp.StudentsUpdated)
			return nil
		})
	},
}

var catalogPaths struct {
	outcomes       string
	courses        string
	courseOutcomes string
}

var importCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Create or update program outcomes and courses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var files services.CatalogFiles
		for _, f := range []struct {
			path string
			dst  *[]byte
		}{
			{catalogPaths.outcomes, &files.Outcomes},
			{catalogPaths.courses, &files.Courses},
			{catalogPaths.courseOutcomes, &files.CourseOutcomes},
		} {
			data, err := os.ReadFile(f.path)
			if err != nil {
				return err
			}
			*f.dst = data
		}
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			resp, err := deps.Services.Import.ImportCatalog(ctx, files)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "program outcomes: %d, courses: %d, course outcomes: %d\n",
				resp.ProgramOutcomes, resp.Courses, resp.CourseOutcomes)
			return nil
		})
	},
}

var semesterCmd = &cobra.Command{
	Use:   "semester",
	Short: "Manage semesters",
}

var (
	newSemester    services.NewSemester
	offeredCourses string
)

var semesterAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Create a semester",
	Example: `  admin semester add --year 2020-2021 --period Fall --order 1 --active --courses CMPE101,CMPE102`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := newSemester
		in.OfferedCourses = splitList(offeredCourses)
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			s, err := deps.Services.Catalog.CreateSemester(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created semester %s (id %d)\n", s.Label(), s.ID)
			return nil
		})
	},
}

var semesterActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Open a semester for uploads",
	Args:  cobra.ExactArgs(1),
	RunE:  setSemesterActive(true),
}

var semesterDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Close a semester for uploads",
	Args:  cobra.ExactArgs(1),
	RunE:  setSemesterActive(false),
}

func setSemesterActive(active bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("semester id must be a positive integer, got %q", args[0])
		}
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			if err := deps.Services.Catalog.SetSemesterActive(ctx, id, active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "semester %d active=%t\n", id, active)
			return nil
		})
	}
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate",
	Short: "Delete every result and replay all stored outcome files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWithServices(cmd, func(ctx context.Context, deps *bootstrap.Dependencies) error {
			resp, err := deps.Services.Maintenance.RecalculateAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "files: %d, failed: %d, results removed: %d, results written: %d\n",
				resp.Files, resp.Failed, resp.RemovedResults, resp.Created)
			return nil
		})
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVarP(&newUser.Username, "username", "u", "", "Username")
	f.StringVar(&newUser.Email, "email", "", "Email address")
	f.StringVarP(&newUser.Password, "password", "p", "", "Password (or PCLINK_PASSWORD)")
	f.BoolVar(&newUser.IsStaff, "staff", false, "Grant staff rights")
	f.BoolVar(&newUser.IsSuperuser, "superuser", false, "Grant superuser rights")
	_ = createUserCmd.MarkFlagRequired("username")

	setPasswordCmd.Flags().StringVarP(&newPassword, "password", "p", "", "New password (or PCLINK_PASSWORD)")

	f = importCatalogCmd.Flags()
	f.StringVar(&catalogPaths.outcomes, "outcomes", "", "po_code,po_desc CSV")
	f.StringVar(&catalogPaths.courses, "courses", "", "course_code,course_name CSV")
	f.StringVar(&catalogPaths.courseOutcomes, "course-outcomes", "", "course_code,pos CSV")
	_ = importCatalogCmd.MarkFlagRequired("outcomes")
	_ = importCatalogCmd.MarkFlagRequired("courses")
	_ = importCatalogCmd.MarkFlagRequired("course-outcomes")
	importCmd.AddCommand(importStudentsCmd, importCatalogCmd)

	f = semesterAddCmd.Flags()
	f.StringVar(&newSemester.YearInterval, "year", "", "Year interval such as 2020-2021")
	f.StringVar(&newSemester.PeriodName, "period", "", "Period name such as Fall")
	f.IntVar(&newSemester.PeriodOrderValue, "order", 0, "Position of the period within the year")
	f.BoolVar(&newSemester.Active, "active", false, "Open the semester for uploads")
	f.StringVar(&offeredCourses, "courses", "", "Comma separated codes of the courses offered")
	_ = semesterAddCmd.MarkFlagRequired("year")
	_ = semesterAddCmd.MarkFlagRequired("period")
	semesterCmd.AddCommand(semesterAddCmd, semesterActivateCmd, semesterDeactivateCmd)
}

// passwordFrom falls back to PCLINK_PASSWORD when no flag was given
func passwordFrom(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("PCLINK_PASSWORD")
}

// splitList splits a comma separated flag, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
