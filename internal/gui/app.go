package gui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/fmuoria/interview-agent/internal/agent"
	"github.com/fmuoria/interview-agent/internal/config"
	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/report"
	"github.com/fmuoria/interview-agent/internal/session"
)

const previewInterval = 100 * time.Millisecond

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	agent      *agent.InterviewAgent

	previewCancel context.CancelFunc

	// Setup page
	setupPage         fyne.CanvasObject
	nameEntry         *widget.Entry
	roleSelect        *widget.Select
	roleDescription   *widget.Label
	personalitySelect *widget.Select
	startBtn          *widget.Button

	// Interview page
	interviewPage *fyne.Container
	progressLabel *widget.Label
	progressBar   *widget.ProgressBar
	questionLabel *widget.Label
	answerEntry   *widget.Entry
	submitBtn     *widget.Button
	skipBtn       *widget.Button
	askBtn        *widget.Button
	listenBtn     *widget.Button
	followUpBtn   *widget.Button
	replyLabel    *widget.Label
	cameraImage   *canvas.Image
	faceLabel     *widget.Label

	// Results page
	resultsPage   fyne.CanvasObject
	overallLabel  *widget.Label
	criteriaTable *widget.Table
	answersTable  *widget.Table
	narrative     *widget.RichText

	pages   *fyne.Container
	summary report.Summary
	results models.Session
}

// NewApp creates a new GUI application around an agent
func NewApp(interviewAgent *agent.InterviewAgent, cfg *config.Config) *App {
	a := app.New()
	w := a.NewWindow("AI Interview Agent")
	w.Resize(fyne.NewSize(1000, 750))

	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	guiApp := &App{
		fyneApp:    a,
		mainWindow: w,
		config:     cfg,
		agent:      interviewAgent,
	}

	guiApp.setupUI()

	interviewAgent.SetProgressCallback(func(current, total int, message string) {
		fyne.Do(func() {
			if total > 0 {
				guiApp.progressBar.SetValue(float64(current) / float64(total))
			}
			slog.Debug("Interview progress", slog.Int("current", current), slog.Int("total", total), slog.String("message", message))
		})
	})

	return guiApp
}

// Run starts the GUI application
func (a *App) Run() {
	defer a.stopPreview()
	a.mainWindow.ShowAndRun()
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	a.setupPage = a.createSetupPage()
	a.interviewPage = a.createInterviewPage()
	a.resultsPage = a.createResultsPage()
	a.pages = container.NewStack(a.setupPage, a.interviewPage, a.resultsPage)

	tabs := container.NewAppTabs(
		container.NewTabItem("Interview", a.pages),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)

	a.mainWindow.SetContent(tabs)
	a.showPage(models.PageSetup)
}

// showPage makes exactly one wizard page visible
func (a *App) showPage(page models.Page) {
	a.setupPage.Hide()
	a.interviewPage.Hide()
	a.resultsPage.Hide()

	switch page {
	case models.PageInterview:
		a.interviewPage.Show()
	case models.PageResults:
		a.resultsPage.Show()
	default:
		a.setupPage.Show()
	}
}

// createSetupPage creates the candidate and role form
func (a *App) createSetupPage() fyne.CanvasObject {
	c := a.agent.Catalog()

	a.nameEntry = widget.NewEntry()
	a.nameEntry.SetPlaceHolder("Your full name")

	a.roleDescription = widget.NewLabel("")
	a.roleDescription.Wrapping = fyne.TextWrapWord

	a.roleSelect = widget.NewSelect(c.RoleNames(), func(role string) {
		desc, err := c.Describe(role)
		if err != nil {
			desc = ""
		}
		a.roleDescription.SetText(desc)
	})
	a.roleSelect.PlaceHolder = "Select a role"

	a.personalitySelect = widget.NewSelect(c.PersonalityNames(), nil)
	a.personalitySelect.SetSelected(a.config.Personality)

	a.startBtn = widget.NewButton("Start Interview", a.handleStart)
	a.startBtn.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Name", a.nameEntry),
		widget.NewFormItem("Role", a.roleSelect),
		widget.NewFormItem("Interviewer", a.personalitySelect),
	)

	return container.NewVBox(
		widget.NewLabelWithStyle("Welcome to the AI Interview", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel(fmt.Sprintf("Scoring backend: %s", a.agent.BackendName())),
		widget.NewSeparator(),
		form,
		a.roleDescription,
		a.startBtn,
	)
}

// createInterviewPage creates the question and answer page
func (a *App) createInterviewPage() *fyne.Container {
	a.progressLabel = widget.NewLabel("")
	a.progressBar = widget.NewProgressBar()

	a.questionLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	a.questionLabel.Wrapping = fyne.TextWrapWord

	a.answerEntry = widget.NewMultiLineEntry()
	a.answerEntry.SetPlaceHolder("Type your answer here...")
	a.answerEntry.SetMinRowsVisible(8)
	a.answerEntry.Wrapping = fyne.TextWrapWord

	a.submitBtn = widget.NewButton("Submit Answer", a.handleSubmit)
	a.submitBtn.Importance = widget.HighImportance
	a.skipBtn = widget.NewButton("Skip Question", a.handleSkip)
	a.askBtn = widget.NewButton("Ask Question", a.handleAsk)
	a.listenBtn = widget.NewButton("Answer by Voice", a.handleListen)
	a.followUpBtn = widget.NewButton("Follow-up", a.handleFollowUp)

	a.replyLabel = widget.NewLabel("")
	a.replyLabel.Wrapping = fyne.TextWrapWord

	a.cameraImage = canvas.NewImageFromImage(nil)
	a.cameraImage.FillMode = canvas.ImageFillContain
	a.cameraImage.SetMinSize(fyne.NewSize(320, 240))
	a.faceLabel = widget.NewLabel("Camera: off")

	left := container.NewVBox(
		a.progressLabel,
		a.progressBar,
		widget.NewSeparator(),
		a.questionLabel,
		a.answerEntry,
		container.NewHBox(a.submitBtn, a.skipBtn, a.askBtn, a.listenBtn, a.followUpBtn),
		a.replyLabel,
	)
	right := container.NewVBox(a.cameraImage, a.faceLabel)

	return container.NewBorder(nil, nil, nil, right, container.NewVScroll(left))
}

// createResultsPage creates the score summary page
func (a *App) createResultsPage() fyne.CanvasObject {
	a.overallLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	a.criteriaTable = widget.NewTable(
		func() (int, int) {
			return len(models.Criteria) + 1, 2 // +1 for header
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				headers := []string{"Criterion", "Average"}
				label.SetText(headers[id.Col])
				label.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			label.TextStyle = fyne.TextStyle{}
			c := models.Criteria[id.Row-1]
			if id.Col == 0 {
				label.SetText(c.Title())
			} else {
				label.SetText(fmt.Sprintf("%.1f/10", a.summary.CriterionAverages[c]))
			}
		},
	)
	a.criteriaTable.SetColumnWidth(0, 180)
	a.criteriaTable.SetColumnWidth(1, 100)

	a.answersTable = widget.NewTable(
		func() (int, int) {
			return len(a.results.Scores) + 1, 4 // +1 for header
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				headers := []string{"#", "Question", "Answer", "Score"}
				label.SetText(headers[id.Col])
				label.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			label.TextStyle = fyne.TextStyle{}
			i := id.Row - 1
			if i >= len(a.results.Scores) {
				return
			}
			switch id.Col {
			case 0:
				label.SetText(fmt.Sprintf("%d", i+1))
			case 1:
				label.SetText(ellipsis(a.results.Role.Questions[i], 60))
			case 2:
				label.SetText(ellipsis(a.results.Answers[i], 60))
			case 3:
				label.SetText(fmt.Sprintf("%.1f", a.results.Scores[i].OverallScore))
			}
		},
	)
	a.answersTable.SetColumnWidth(0, 40)
	a.answersTable.SetColumnWidth(1, 380)
	a.answersTable.SetColumnWidth(2, 380)
	a.answersTable.SetColumnWidth(3, 70)

	a.narrative = widget.NewRichTextFromMarkdown("")
	a.narrative.Wrapping = fyne.TextWrapWord

	downloadBtn := widget.NewButton("Download Report", a.handleDownload)
	exportBtn := widget.NewButton("Export to Excel", a.handleExport)
	saveBtn := widget.NewButton("Save to Reports Folder", a.handleSaveReport)
	newBtn := widget.NewButton("New Interview", a.handleNewInterview)
	newBtn.Importance = widget.HighImportance

	tables := container.NewGridWithColumns(2,
		container.NewGridWrap(fyne.NewSize(300, 220), a.criteriaTable),
		container.NewGridWrap(fyne.NewSize(880, 220), a.answersTable),
	)

	return container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Interview Complete!", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.overallLabel,
		tables,
		widget.NewSeparator(),
		a.narrative,
		container.NewHBox(downloadBtn, exportBtn, saveBtn, newBtn),
	))
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	backendSelect := widget.NewSelect([]string{
		config.BackendAuto, config.BackendOllama, config.BackendOpenAI, config.BackendVertexAI, config.BackendHeuristic,
	}, nil)
	backendSelect.SetSelected(a.config.Backend)

	ollamaURLEntry := widget.NewEntry()
	ollamaURLEntry.SetText(a.config.OllamaURL)
	ollamaModelEntry := widget.NewEntry()
	ollamaModelEntry.SetText(a.config.OllamaModel)

	openAIKeyEntry := widget.NewPasswordEntry()
	openAIKeyEntry.SetText(a.config.OpenAIAPIKey)
	openAIModelEntry := widget.NewEntry()
	openAIModelEntry.SetText(a.config.OpenAIModel)

	projectEntry := widget.NewEntry()
	projectEntry.SetText(a.config.GoogleCloudProject)
	locationEntry := widget.NewEntry()
	locationEntry.SetText(a.config.GoogleCloudLocation)
	googleCredsEntry := widget.NewEntry()
	googleCredsEntry.SetText(a.config.GoogleCredentialsPath)

	googleCredsBtn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err == nil && uc != nil {
				googleCredsEntry.SetText(uc.URI().Path())
				uc.Close()
			}
		}, a.mainWindow)
	})

	reportsEntry := widget.NewEntry()
	reportsEntry.SetText(a.config.ReportsDir)

	form := widget.NewForm(
		widget.NewFormItem("Backend", backendSelect),
		widget.NewFormItem("Ollama URL", ollamaURLEntry),
		widget.NewFormItem("Ollama Model", ollamaModelEntry),
		widget.NewFormItem("OpenAI API Key", openAIKeyEntry),
		widget.NewFormItem("OpenAI Model", openAIModelEntry),
		widget.NewFormItem("Google Cloud Project", projectEntry),
		widget.NewFormItem("Google Cloud Location", locationEntry),
		widget.NewFormItem("Google Credentials", container.NewBorder(nil, nil, nil, googleCredsBtn, googleCredsEntry)),
		widget.NewFormItem("Reports Folder", reportsEntry),
	)

	apply := func() {
		a.config.Backend = backendSelect.Selected
		a.config.OllamaURL = ollamaURLEntry.Text
		a.config.OllamaModel = ollamaModelEntry.Text
		a.config.OpenAIAPIKey = openAIKeyEntry.Text
		a.config.OpenAIModel = openAIModelEntry.Text
		a.config.GoogleCloudProject = projectEntry.Text
		a.config.GoogleCloudLocation = locationEntry.Text
		a.config.GoogleCredentialsPath = googleCredsEntry.Text
		a.config.ReportsDir = reportsEntry.Text
	}

	saveBtn := widget.NewButton("Save Settings", func() {
		apply()
		if err := a.config.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}

		// Apply to environment
		a.config.ApplyToEnv()

		dialog.ShowInformation("Success", "Settings saved. Restart the application to switch backends.", a.mainWindow)
	})

	testBtn := widget.NewButton("Validate", func() {
		apply()
		if err := a.config.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Configuration is valid", a.mainWindow)
	})

	return container.NewVBox(
		form,
		container.NewHBox(saveBtn, testBtn),
	)
}

// handleStart submits the setup form
func (a *App) handleStart() {
	s, err := a.agent.StartInterview(a.nameEntry.Text, a.roleSelect.Selected, a.personalitySelect.Selected)
	if err != nil {
		var ve *session.ValidationError
		if errors.As(err, &ve) {
			dialog.ShowError(errors.New(ve.Message), a.mainWindow)
			return
		}
		dialog.ShowError(err, a.mainWindow)
		return
	}

	a.replyLabel.SetText(fmt.Sprintf("Hello %s! I'm your %s interviewer for the %s position.",
		s.CandidateName, strings.ToLower(s.Personality.Name), s.Role.Name))
	a.refreshQuestion()
	a.showPage(models.PageInterview)
	a.startPreview()
}

// refreshQuestion shows the current question and progress
func (a *App) refreshQuestion() {
	question, done, total, ok := a.agent.CurrentQuestion()
	if !ok {
		return
	}
	a.progressLabel.SetText(fmt.Sprintf("Question %d of %d", done+1, total))
	if total > 0 {
		a.progressBar.SetValue(float64(done) / float64(total))
	}
	a.questionLabel.SetText(question)
	a.answerEntry.SetText("")
}

// setBusy disables the interview controls while a call is running
func (a *App) setBusy(busy bool) {
	for _, btn := range []*widget.Button{a.submitBtn, a.skipBtn, a.askBtn, a.listenBtn, a.followUpBtn} {
		if busy {
			btn.Disable()
		} else {
			btn.Enable()
		}
	}
}

// handleSubmit scores the typed answer in the background
func (a *App) handleSubmit() {
	answer := a.answerEntry.Text
	if strings.TrimSpace(answer) == "" {
		dialog.ShowError(fmt.Errorf("please provide an answer before submitting"), a.mainWindow)
		return
	}

	a.setBusy(true)
	a.replyLabel.SetText("Evaluating your answer...")

	go func() {
		s, err := a.agent.SubmitAnswer(context.Background(), answer)

		// All UI updates must be done on the main thread using fyne.Do
		fyne.Do(func() {
			a.setBusy(false)
			if err != nil {
				a.replyLabel.SetText("")
				dialog.ShowError(err, a.mainWindow)
				return
			}
			a.replyLabel.SetText("Thank you for your answer.")
			a.afterTransition(s)
		})
	}()
}

// handleSkip records a skipped answer
func (a *App) handleSkip() {
	s, err := a.agent.SkipQuestion()
	if err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}
	a.replyLabel.SetText("Question skipped.")
	a.afterTransition(s)
}

func (a *App) afterTransition(s models.Session) {
	if s.Page == models.PageResults {
		a.stopPreview()
		a.showResults()
		return
	}
	a.refreshQuestion()
}

// handleAsk reads the current question aloud
func (a *App) handleAsk() {
	if _, _, err := a.agent.AskQuestion(); err != nil {
		dialog.ShowError(err, a.mainWindow)
	}
}

// handleListen records a spoken answer into the answer box
func (a *App) handleListen() {
	a.setBusy(true)
	a.replyLabel.SetText("Listening...")

	go func() {
		text, err := a.agent.Listen(context.Background(), 0)

		fyne.Do(func() {
			a.setBusy(false)
			if err != nil {
				a.replyLabel.SetText("")
				dialog.ShowError(fmt.Errorf("voice input failed: %w", err), a.mainWindow)
				return
			}
			a.answerEntry.SetText(strings.TrimSpace(a.answerEntry.Text + " " + text))
			a.replyLabel.SetText("")
		})
	}()
}

// handleFollowUp asks the interviewer for a follow-up on the typed answer
func (a *App) handleFollowUp() {
	answer := a.answerEntry.Text
	if strings.TrimSpace(answer) == "" {
		dialog.ShowError(fmt.Errorf("please type an answer first"), a.mainWindow)
		return
	}

	a.setBusy(true)
	go func() {
		reply, err := a.agent.FollowUp(context.Background(), answer)

		fyne.Do(func() {
			a.setBusy(false)
			if err != nil {
				dialog.ShowError(err, a.mainWindow)
				return
			}
			a.replyLabel.SetText(reply)
			a.agent.Speak(reply)
		})
	}()
}

// showResults renders the results page
func (a *App) showResults() {
	summary, err := a.agent.Summary()
	if err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}

	a.summary = summary
	a.results = a.agent.Session()
	a.overallLabel.SetText(fmt.Sprintf("Overall Score: %.1f/10 (%d of %d questions answered)",
		summary.OverallScore, summary.QuestionsAnswered, summary.TotalQuestions))
	a.criteriaTable.Refresh()
	a.answersTable.Refresh()
	a.narrative.ParseMarkdown(summary.Narrative)
	a.progressBar.SetValue(1)
	a.showPage(models.PageResults)

	a.fyneApp.SendNotification(&fyne.Notification{
		Title:   "Interview Complete",
		Content: fmt.Sprintf("Overall score %.1f/10", summary.OverallScore),
	})
}

// handleDownload saves the JSON report through a file dialog
func (a *App) handleDownload() {
	data, name, err := a.agent.ReportJSON()
	if err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}

	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		if _, err := uc.Write(data); err != nil {
			dialog.ShowError(fmt.Errorf("failed to save report: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Report saved to "+filepath.Base(uc.URI().Path()), a.mainWindow)
	}, a.mainWindow)
	d.SetFileName(name)
	d.Show()
}

// handleExport handles exporting results to Excel
func (a *App) handleExport() {
	timestamp := time.Now().Format("2006-01-02_150405")
	defaultName := fmt.Sprintf("Interview_Report_%s.xlsx", timestamp)

	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		outputPath := uc.URI().Path()
		uc.Close()

		written, err := a.agent.ExportExcel(outputPath)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to export: %w", err), a.mainWindow)
			return
		}

		dialog.ShowInformation("Success", "Results exported successfully to "+filepath.Base(written), a.mainWindow)
	}, a.mainWindow)
	d.SetFileName(defaultName)
	d.Show()
}

// handleSaveReport writes the JSON report into the configured reports folder
func (a *App) handleSaveReport() {
	path, err := a.agent.SaveReport(a.config.ReportsDir)
	if err != nil {
		dialog.ShowError(err, a.mainWindow)
		return
	}
	dialog.ShowInformation("Success", "Report saved to "+path, a.mainWindow)
}

// handleNewInterview resets the wizard
func (a *App) handleNewInterview() {
	a.stopPreview()
	a.agent.Reset()

	a.summary = report.Summary{}
	a.results = models.Session{}
	a.nameEntry.SetText("")
	a.roleSelect.ClearSelected()
	a.roleDescription.SetText("")
	a.answerEntry.SetText("")
	a.replyLabel.SetText("")
	a.progressBar.SetValue(0)
	a.showPage(models.PageSetup)
}

// startPreview polls camera frames into the preview image
func (a *App) startPreview() {
	a.stopPreview()

	ctx, cancel := context.WithCancel(context.Background())
	a.previewCancel = cancel

	go func() {
		ticker := time.NewTicker(previewInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			frame, ok := a.agent.CameraFrame()
			if !ok {
				continue
			}
			faces := a.agent.Faces()

			fyne.Do(func() {
				a.cameraImage.Image = frame
				a.cameraImage.Refresh()
				if faces.Present {
					a.faceLabel.SetText(fmt.Sprintf("Faces detected: %d", faces.FacesDetected))
				} else {
					a.faceLabel.SetText("No face detected")
				}
			})
		}
	}()
}

func (a *App) stopPreview() {
	if a.previewCancel != nil {
		a.previewCancel()
		a.previewCancel = nil
	}
}

// ellipsis shortens s to at most n runes for table cells
func ellipsis(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
