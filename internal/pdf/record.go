package pdf

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// ClinicalRecord são os dados do prontuário para o PDF de balcão.
type ClinicalRecord struct {
	FullName  string
	CPF       string
	Email     string
	Phone     string
	Address   string
	BirthDate string

	DiseaseDetails      string
	CurrentMedications  string
	AnesthesiaAllergies string
	SurgicalHistory     string
	DentalHistory       string
	SmokingFrequency    string
	AlcoholFrequency    string
	BloodExam           string
	Coagulation         string
	Healing             string

	Procedures      []ProcedureLine
	VerificationURL string
}

type ProcedureLine struct {
	Date          string
	Procedure     string
	ToothFace     string
	Professional  string
	PaymentMethod string
	Value         float64
	IsPrincipal   bool
}

// BuildClinicalRecordPDF renderiza o prontuário em A4: identificação, ficha
// de saúde e a tabela da linha do tempo de procedimentos, com QR code para o
// app no rodapé.
func BuildClinicalRecordPDF(rec ClinicalRecord) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 10, "Prontuario Odontologico", "", 1, "C", false, 0, "")
	doc.Ln(2)

	section := func(title string) {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.Ln(1)
	}
	line := func(label, value string) {
		if value == "" {
			return
		}
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 6, value, "", "L", false)
	}

	section("Identificacao")
	line("Nome:", rec.FullName)
	line("CPF:", rec.CPF)
	line("E-mail:", rec.Email)
	line("Telefone:", rec.Phone)
	line("Endereco:", rec.Address)
	line("Nascimento:", rec.BirthDate)
	doc.Ln(3)

	section("Ficha de saude")
	line("Doencas:", rec.DiseaseDetails)
	line("Medicamentos:", rec.CurrentMedications)
	line("Anestesias:", rec.AnesthesiaAllergies)
	line("Hist. cirurgico:", rec.SurgicalHistory)
	line("Hist. odontologico:", rec.DentalHistory)
	line("Fumo:", rec.SmokingFrequency)
	line("Alcool:", rec.AlcoholFrequency)
	line("Exame de sangue:", rec.BloodExam)
	line("Coagulacao:", rec.Coagulation)
	line("Cicatrizacao:", rec.Healing)
	doc.Ln(3)

	section("Procedimentos")
	doc.SetFont("Helvetica", "B", 9)
	doc.CellFormat(22, 6, "Data", "1", 0, "L", false, 0, "")
	doc.CellFormat(52, 6, "Procedimento", "1", 0, "L", false, 0, "")
	doc.CellFormat(24, 6, "Dente/Face", "1", 0, "L", false, 0, "")
	doc.CellFormat(40, 6, "Profissional", "1", 0, "L", false, 0, "")
	doc.CellFormat(22, 6, "Valor", "1", 0, "R", false, 0, "")
	doc.CellFormat(0, 6, "", "1", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	for _, pr := range rec.Procedures {
		marker := ""
		if pr.IsPrincipal {
			marker = "principal"
		}
		doc.CellFormat(22, 6, pr.Date, "1", 0, "L", false, 0, "")
		doc.CellFormat(52, 6, pr.Procedure, "1", 0, "L", false, 0, "")
		doc.CellFormat(24, 6, pr.ToothFace, "1", 0, "L", false, 0, "")
		doc.CellFormat(40, 6, pr.Professional, "1", 0, "L", false, 0, "")
		doc.CellFormat(22, 6, fmt.Sprintf("R$ %.2f", pr.Value), "1", 0, "R", false, 0, "")
		doc.CellFormat(0, 6, marker, "1", 1, "L", false, 0, "")
	}
	doc.Ln(6)

	if rec.VerificationURL != "" {
		qrPNG, err := qrcode.Encode(rec.VerificationURL, qrcode.Medium, 128)
		if err == nil {
			tmpFile, err := os.CreateTemp("", "qr-*.png")
			if err == nil {
				_, _ = tmpFile.Write(qrPNG)
				path := tmpFile.Name()
				tmpFile.Close()
				defer os.Remove(path)
				doc.RegisterImage(path, "PNG")
				doc.Image(path, 15, doc.GetY(), 28, 28, false, "", 0, "")
				doc.SetY(doc.GetY() + 30)
			}
		}
		doc.SetFont("Helvetica", "", 8)
		doc.CellFormat(0, 5, "Acesse seu prontuario em: "+rec.VerificationURL, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
