package collector

import "fmt"

const testBase = "https://archive.test"

// form4 wraps transactions in a minimal filing with a text-submission
// envelope around it.
func form4(reportingOwner, transactions string) string {
	return fmt.Sprintf(`<SEC-DOCUMENT>0000000000-24-000001.txt
<TYPE>4
<TEXT>
<XML>
<?xml version="1.0"?>
<ownershipDocument>
  <issuer>
    <issuerCik>0000000001</issuerCik>
    <issuerName>Acme Corp</issuerName>
    <issuerTradingSymbol>acme</issuerTradingSymbol>
  </issuer>
  %s
  <nonDerivativeTable>%s</nonDerivativeTable>
</ownershipDocument>
</XML>
</TEXT>
</SEC-DOCUMENT>`, reportingOwner, transactions)
}

const directorOwner = `<reportingOwner>
    <reportingOwnerId><rptOwnerName>Jane Doe</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship><isDirector>1</isDirector><isOfficer>0</isOfficer></reportingOwnerRelationship>
  </reportingOwner>`

func nonDerivative(code, date, shares, price string) string {
	priceXML := ""
	if price != "" {
		priceXML = fmt.Sprintf(`<transactionPricePerShare><value>%s</value></transactionPricePerShare>`, price)
	}
	return fmt.Sprintf(`<nonDerivativeTransaction>
    <transactionDate><value>%s</value></transactionDate>
    <transactionCoding><transactionFormType>4</transactionFormType><transactionCode>%s</transactionCode></transactionCoding>
    <transactionAmounts>
      <transactionShares><value>%s</value></transactionShares>
      %s
    </transactionAmounts>
  </nonDerivativeTransaction>`, date, code, shares, priceXML)
}
