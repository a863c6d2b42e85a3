package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/models"
	"github.com/dastanaron/xbelmarks/internal/service"
)

const (
	ModeNormal = 1
	ModeSearch = 2
	ModeForm   = 3
	ModeModal  = 4
)

// App represents the TUI application
type App struct {
	app         *tview.Application
	tree        *tview.TreeView
	detail      *tview.TextView
	search      *tview.InputField
	pages       *tview.Pages
	form        *tview.Form
	status      *tview.TextView
	mode        uint8
	bookmarkSvc *service.BookmarkService
	log         logrus.FieldLogger
	openURL     func(string) error

	dirty    bool
	message  string
	matches  []*models.Node
	matchIdx int
}

// NewApp creates a new application instance
func NewApp(bookmarkSvc *service.BookmarkService, log logrus.FieldLogger) *App {
	return &App{
		app:         tview.NewApplication(),
		tree:        tview.NewTreeView(),
		detail:      tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		search:      tview.NewInputField().SetLabel("Search: "),
		pages:       tview.NewPages(),
		status:      tview.NewTextView().SetDynamicColors(true),
		mode:        ModeNormal,
		bookmarkSvc: bookmarkSvc,
		log:         log,
		openURL:     openURL,
	}
}

// Run starts the application
func (a *App) Run() error {
	a.tree.SetBorder(true).SetTitle("Bookmarks")
	a.detail.SetBorder(true).SetTitle("Details")

	cols := tview.NewFlex().
		AddItem(a.tree, 0, 3, true).
		AddItem(a.detail, 0, 2, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.search, 1, 0, false).
		AddItem(cols, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.pages.AddPage("main", main, true, true)

	a.tree.SetChangedFunc(func(node *tview.TreeNode) {
		a.detail.SetText(details(reference(node)))
	})
	a.search.SetDoneFunc(a.onSearchDone)

	a.refresh(nil)

	a.app.SetRoot(a.pages, true)
	a.app.SetInputCapture(a.globalInput)
	a.app.SetFocus(a.tree)
	return a.app.Run()
}

// refresh rebuilds the tree view and selects the node showing sel, or the
// first item when sel is nil or gone
func (a *App) refresh(sel *models.Node) {
	treeRoot := buildTree(a.bookmarkSvc.Root())
	a.tree.SetRoot(treeRoot)

	current := treeRoot
	if children := treeRoot.GetChildren(); len(children) > 0 {
		current = children[0]
	}
	if sel != nil {
		if node, ancestors := findTreeNode(treeRoot, sel); node != nil {
			for _, p := range ancestors {
				p.SetExpanded(true)
			}
			current = node
		}
	}
	a.tree.SetCurrentNode(current)
	a.detail.SetText(details(reference(current)))
	a.updateStatus()
}

func (a *App) updateStatus() {
	a.status.SetText(statusLine(a.bookmarkSvc.Root().Count(), a.dirty, a.message))
}

func (a *App) setMessage(format string, args ...interface{}) {
	a.message = fmt.Sprintf(format, args...)
	a.updateStatus()
}

func (a *App) markDirty(sel *models.Node) {
	a.dirty = true
	a.message = ""
	a.refresh(sel)
}

func (a *App) selected() *models.Node {
	return reference(a.tree.GetCurrentNode())
}

func reference(node *tview.TreeNode) *models.Node {
	if node == nil {
		return nil
	}
	n, _ := node.GetReference().(*models.Node)
	return n
}

func (a *App) setMode(m uint8) {
	a.mode = m
	switch m {
	case ModeSearch:
		a.app.SetFocus(a.search)
	case ModeNormal:
		a.app.SetFocus(a.tree)
	}
}

func (a *App) onSearchDone(key tcell.Key) {
	switch key {
	case tcell.KeyEnter:
		query := a.search.GetText()
		a.matches = a.bookmarkSvc.Search(query)
		a.matchIdx = -1
		a.setMode(ModeNormal)
		if query != "" {
			a.nextMatch()
		}
	case tcell.KeyEscape:
		a.search.SetText("")
		a.matches = nil
		a.setMode(ModeNormal)
	}
}

// nextMatch selects the next search result, unfolding the view down to it
func (a *App) nextMatch() {
	if len(a.matches) == 0 {
		a.setMessage("[yellow]no matches[-]")
		return
	}

	a.matchIdx = (a.matchIdx + 1) % len(a.matches)
	n := a.matches[a.matchIdx]
	node, ancestors := findTreeNode(a.tree.GetRoot(), n)
	if node == nil {
		// deleted since the search ran
		a.matches = append(a.matches[:a.matchIdx], a.matches[a.matchIdx+1:]...)
		a.matchIdx--
		a.nextMatch()
		return
	}
	for _, p := range ancestors {
		p.SetExpanded(true)
	}
	a.tree.SetCurrentNode(node)
	a.detail.SetText(details(n))
	a.setMessage("match %d/%d", a.matchIdx+1, len(a.matches))
}

func (a *App) activate(n *models.Node) {
	switch n.Kind {
	case models.KindFolder:
		if n.IsRoot() {
			return
		}
		if _, err := a.bookmarkSvc.ToggleFolded(n); err != nil {
			a.showError(fmt.Sprintf("Error: %v", err))
			return
		}
		a.markDirty(n)
	case models.KindLink:
		if n.URL == "" {
			return
		}
		if err := a.openURL(n.URL); err != nil {
			a.log.WithError(err).WithField("url", n.URL).Warn("cannot open bookmark")
			a.showError(fmt.Sprintf("Error opening %s: %v", n.URL, err))
		}
	}
}

func (a *App) save() {
	if err := a.bookmarkSvc.Save(); err != nil {
		a.showError(fmt.Sprintf("Error saving bookmarks: %v", err))
		return
	}
	a.dirty = false
	a.setMessage("[green]saved[-]")
}

func (a *App) quit() {
	if !a.dirty {
		a.app.Stop()
		return
	}
	a.showConfirm("There are unsaved changes. Quit anyway?", a.app.Stop)
}

func (a *App) globalInput(event *tcell.EventKey) *tcell.EventKey {
	// modals handle their own keys
	if a.pages.HasPage("confirm") || a.pages.HasPage("error") {
		return event
	}

	switch a.mode {
	case ModeNormal:
		n := a.selected()
		switch event.Key() {
		case tcell.KeyEnter:
			if n != nil {
				a.activate(n)
			}
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case '/':
				a.setMode(ModeSearch)
				return nil
			case 'n':
				a.nextMatch()
				return nil
			case 'a':
				a.showForm(models.NewLink("", ""), targetFolder(n, a.bookmarkSvc.Root()))
				return nil
			case 'f':
				a.showForm(models.NewFolder(""), targetFolder(n, a.bookmarkSvc.Root()))
				return nil
			case '-':
				sep := models.NewSeparator()
				if err := a.bookmarkSvc.Add(targetFolder(n, a.bookmarkSvc.Root()), sep); err != nil {
					a.showError(fmt.Sprintf("Error adding separator: %v", err))
					return nil
				}
				a.markDirty(sep)
				return nil
			case 'e':
				if n != nil && !n.IsRoot() && !n.IsSeparator() {
					a.showForm(n, nil)
				}
				return nil
			case 'd':
				if n != nil && !n.IsRoot() {
					a.confirmDelete(n)
				}
				return nil
			case 's':
				a.save()
				return nil
			case 'q':
				a.quit()
				return nil
			}
		}
	case ModeForm:
		if event.Key() == tcell.KeyEscape {
			a.closeForm()
			return nil
		}
	}
	return event
}

func (a *App) confirmDelete(n *models.Node) {
	var what string
	switch n.Kind {
	case models.KindFolder:
		what = fmt.Sprintf("folder '%s' and its %d item(s)", n.Title, n.Count().Total())
	case models.KindLink:
		what = fmt.Sprintf("bookmark '%s'", n.Title)
	case models.KindSeparator:
		what = "separator"
	}

	// select a neighbour once n is gone
	next := n.Parent()
	if p := n.Parent(); p != nil {
		if sib := p.Child(n.Index() + 1); sib != nil {
			next = sib
		} else if sib := p.Child(n.Index() - 1); sib != nil {
			next = sib
		}
	}

	a.showConfirm(fmt.Sprintf("Are you sure you want to delete %s?", what), func() {
		if err := a.bookmarkSvc.Delete(n); err != nil {
			a.showError(fmt.Sprintf("Error deleting %s: %v", n.Kind, err))
			return
		}
		a.markDirty(next)
	})
}

// showForm edits n in place, or adds it to parent when parent is not nil
func (a *App) showForm(n *models.Node, parent *models.Node) {
	isNew := parent != nil
	title, url, desc := n.Title, n.URL, n.Description

	form := tview.NewForm()
	form.AddInputField("Title", title, 60, nil, func(t string) { title = t })
	if n.IsLink() {
		form.AddInputField("URL", url, 60, nil, func(t string) { url = t })
	}
	form.AddInputField("Description", desc, 60, nil, func(t string) { desc = t })

	form.AddButton("Save", func() {
		if n.IsLink() && url == "" {
			a.showError("Error: URL is required")
			return
		}
		if n.IsFolder() && title == "" {
			a.showError("Error: Folder name is required")
			return
		}

		if isNew {
			if err := a.bookmarkSvc.Add(parent, n); err != nil {
				a.showError(fmt.Sprintf("Error adding %s: %v", n.Kind, err))
				return
			}
		}
		if err := a.bookmarkSvc.Update(n, title, url, desc); err != nil {
			a.showError(fmt.Sprintf("Error saving %s: %v", n.Kind, err))
			return
		}

		a.closeForm()
		a.markDirty(n)
	})
	form.AddButton("Cancel", a.closeForm)

	formTitle := "Edit "
	if isNew {
		formTitle = "New "
	}
	if n.IsFolder() {
		formTitle += "Folder"
	} else {
		formTitle += "Bookmark"
	}
	form.SetBorder(true).SetTitle(formTitle)
	a.form = form
	a.pages.AddPage("form", form, true, true)
	a.app.SetFocus(form)
	a.mode = ModeForm
}

func (a *App) closeForm() {
	a.pages.RemovePage("form")
	a.form = nil
	a.setMode(ModeNormal)
}

// restoreFocus returns to the form or the tree once a modal closes
func (a *App) restoreFocus() {
	if a.form != nil {
		a.mode = ModeForm
		a.app.SetFocus(a.form)
		return
	}
	a.setMode(ModeNormal)
}

func (a *App) showError(message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("error")
			a.restoreFocus()
		})

	modal.SetBorder(true).SetTitle("Error")
	a.pages.AddPage("error", modal, true, true)
	a.mode = ModeModal
	a.app.SetFocus(modal)
}

func (a *App) showConfirm(message string, onConfirm func()) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"Cancel", "OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("confirm")
			a.restoreFocus()
			if buttonIndex == 1 && onConfirm != nil {
				onConfirm()
			}
		})

	modal.SetBorder(true).SetTitle("Confirm")
	a.pages.AddPage("confirm", modal, true, true)
	a.mode = ModeModal
	a.app.SetFocus(modal)
}

func openURL(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
