package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow-cli/internal/core/domain"
)

var (
	docsLang    string
	docsVersion string

	docsName       string
	docsTitle      string
	docsPath       string
	docsParent     string
	docsAPIRef     bool
	docsCreateLang string
	docsCreateFile string

	docsEditLang string
	docsEditFile string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse backend documents",
	Long: `List the document tree, document versions and document content,
and create, edit or delete documents.`,
}

var docsTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the document tree",
	RunE:  runDocsTree,
}

var docsVersionsCmd = &cobra.Command{
	Use:   "versions [doc-id]",
	Short: "List versions of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsVersions,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Print document content",
	Long:  `Print the markdown of a document version. A missing version falls back to the latest.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var docsRefreshCmd = &cobra.Command{
	Use:   "refresh [doc-id]",
	Short: "Drop cached documents and fetch them again",
	Long:  `Without an argument the whole cache is dropped. With a document id only its versions are refetched.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocsRefresh,
}

var docsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a document",
	Long:  `Create a document. Content is read from --file, or from stdin when --file is "-".`,
	Args:  cobra.NoArgs,
	RunE:  runDocsCreate,
}

var docsEditCmd = &cobra.Command{
	Use:   "edit [doc-id]",
	Short: "Save new content as a document version",
	Long: `Save the markdown in --file (or stdin for "-") as a new version.
The language defaults to the one the document is listed under.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsEdit,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Mark a document as deleted",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsTreeCmd.Flags().StringVarP(&docsLang, "lang", "l", "", "only show this language")
	docsShowCmd.Flags().StringVar(&docsVersion, "version", domain.LatestVersion, "version to show")

	docsCreateCmd.Flags().StringVar(&docsName, "name", "", "document name (required)")
	docsCreateCmd.Flags().StringVar(&docsTitle, "title", "", "document title (required)")
	docsCreateCmd.Flags().StringVar(&docsPath, "path", "", "document path (required)")
	docsCreateCmd.Flags().StringVar(&docsParent, "parent", "", "parent document id")
	docsCreateCmd.Flags().BoolVar(&docsAPIRef, "api-ref", false, "list under API references")
	docsCreateCmd.Flags().StringVarP(&docsCreateLang, "lang", "l", "en", "content language")
	docsCreateCmd.Flags().StringVarP(&docsCreateFile, "file", "f", "", "markdown file, - for stdin")
	docsEditCmd.Flags().StringVarP(&docsEditFile, "file", "f", "", "markdown file, - for stdin (required)")
	docsEditCmd.Flags().StringVarP(&docsEditLang, "lang", "l", "", "content language")
	_ = docsEditCmd.MarkFlagRequired("file")

	docsCmd.AddCommand(docsTreeCmd)
	docsCmd.AddCommand(docsVersionsCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsRefreshCmd)
	docsCmd.AddCommand(docsCreateCmd)
	docsCmd.AddCommand(docsEditCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsTree(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	tree, err := documentService.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	shown := 0
	for _, lang := range tree.Languages() {
		if docsLang != "" && lang != docsLang {
			continue
		}
		shown++
		languageTree := tree[lang]
		cmd.Printf("[%s]\n", lang)
		printSection(cmd, "Documentation", languageTree.Documentation)
		printSection(cmd, "API References", languageTree.APIReferences)
		cmd.Println()
	}

	if shown == 0 {
		cmd.Println("No documents found.")
	}
	return nil
}

func printSection(cmd *cobra.Command, title string, nodes []domain.DocumentNode) {
	if len(nodes) == 0 {
		return
	}
	cmd.Printf("  %s:\n", title)
	printNodes(cmd, nodes, 2)
}

func printNodes(cmd *cobra.Command, nodes []domain.DocumentNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for i := range nodes {
		n := &nodes[i]
		if n.IsDeleted {
			continue
		}
		title := n.Title
		if title == "" {
			title = n.Name
		}
		cmd.Printf("%s%s  %s (%s)\n", indent, title, n.Path, n.ID)
		printNodes(cmd, n.Children, depth+1)
	}
}

func runDocsVersions(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	versions, err := documentService.Versions(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if len(versions) == 0 {
		cmd.Printf("No versions found for document: %s\n", args[0])
		return nil
	}

	cmd.Printf("Versions of %s:\n\n", args[0])
	for i := range versions {
		v := &versions[i]
		cmd.Printf("  %s", v.Version)
		if v.Language != "" {
			cmd.Printf(" [%s]", v.Language)
		}
		if v.UpdatedAt != "" {
			cmd.Printf("  %s", v.UpdatedAt)
		}
		cmd.Println()
		if v.Summary != "" {
			cmd.Printf("    %s\n", v.Summary)
		}
	}
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	v, err := documentService.Version(cmd.Context(), args[0], docsVersion)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(v.MarkdownContent)
	return nil
}

func runDocsRefresh(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if len(args) == 1 {
		documentService.InvalidateVersions(args[0])
		versions, err := documentService.Versions(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to refresh versions: %w", err)
		}
		cmd.Printf("Refreshed %d versions of %s\n", len(versions), args[0])
		return nil
	}

	documentService.ClearCache()
	tree, err := documentService.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to refresh documents: %w", err)
	}

	cmd.Printf("Refreshed %d documents in %d languages\n", tree.Count(), len(tree.Languages()))
	return nil
}

func runDocsCreate(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc := domain.NewDocument{
		Name:     docsName,
		Title:    docsTitle,
		Path:     docsPath,
		IsAPIRef: docsAPIRef,
		ParentID: docsParent,
		Language: docsCreateLang,
	}
	if docsCreateFile != "" {
		content, err := readContent(cmd, docsCreateFile)
		if err != nil {
			return err
		}
		doc.MarkdownContent = content
	}

	node, err := documentService.CreateDocument(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	cmd.Printf("Created %s  %s (%s)\n", node.Title, node.Path, node.ID)
	return nil
}

func runDocsEdit(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := readContent(cmd, docsEditFile)
	if err != nil {
		return err
	}

	v, err := documentService.CreateVersion(cmd.Context(), args[0], domain.NewVersion{
		Language:        docsEditLang,
		MarkdownContent: content,
	})
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	cmd.Printf("Saved version %s of %s [%s]\n", v.Version, args[0], v.Language)
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

// readContent reads markdown from path, or from stdin when path is "-".
func readContent(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}
