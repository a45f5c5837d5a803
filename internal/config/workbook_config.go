package config

type Workbook struct{}

var _ WorkbookConfig = Workbook{}

func (Workbook) GetWorkbookFileName() string {
	return GetEnv("MICROSOFT_EXCEL_FILE_NAME", "")
}

func (Workbook) GetWorkbookSheetName() string {
	return GetEnv("MICROSOFT_EXCEL_SHEET_NAME", "Sheet1")
}

func (Workbook) GetWorkbookTableName() string {
	return GetEnv("MICROSOFT_EXCEL_TABLE_NAME", "Table1")
}
