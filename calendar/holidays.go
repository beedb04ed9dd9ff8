package calendar

// Static holiday tables. These cover the date ranges exercised by the
// reference securities in this repository; feeds for live usage should extend
// them rather than relying on weekend-only fallback.

var ldnHolidayList = []string{
	// 1998
	"1998-01-01", "1998-04-10", "1998-04-13", "1998-05-04", "1998-05-25",
	"1998-08-31", "1998-12-25", "1998-12-28",
	// 1999
	"1999-01-01", "1999-04-02", "1999-04-05", "1999-05-03", "1999-05-31",
	"1999-08-30", "1999-12-27", "1999-12-28", "1999-12-31",
	// 2000
	"2000-01-03", "2000-04-21", "2000-04-24", "2000-05-01", "2000-05-29",
	"2000-08-28", "2000-12-25", "2000-12-26",
	// 2022
	"2022-01-03", "2022-04-15", "2022-04-18", "2022-05-02", "2022-06-02",
	"2022-06-03", "2022-08-29", "2022-12-26", "2022-12-27",
	// 2023
	"2023-01-02", "2023-04-07", "2023-04-10", "2023-05-01", "2023-05-08",
	"2023-05-29", "2023-08-28", "2023-12-25", "2023-12-26",
}

var stkHolidayList = []string{
	"2017-01-06", "2017-04-14", "2017-04-17", "2017-05-01", "2017-05-25",
	"2017-06-06", "2017-06-23", "2017-12-25", "2017-12-26",
	"2028-01-06", "2028-04-14", "2028-04-17", "2028-05-01", "2028-05-25",
	"2028-06-06", "2028-06-23", "2028-12-25", "2028-12-26",
}

var nycHolidayList = []string{
	"2022-01-17", "2022-02-21", "2022-05-30", "2022-06-20", "2022-07-04",
	"2022-09-05", "2022-10-10", "2022-11-11", "2022-11-24", "2022-12-26",
	"2023-01-02", "2023-01-16", "2023-02-20", "2023-05-29", "2023-06-19",
	"2023-07-04", "2023-09-04", "2023-10-09", "2023-11-23", "2023-12-25",
}

var tgtHolidayList = []string{
	"2022-04-15", "2022-04-18", "2022-12-26",
	"2023-04-07", "2023-04-10", "2023-05-01", "2023-12-25", "2023-12-26",
}
